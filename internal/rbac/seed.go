package rbac

import "github.com/lokapasar/lokapasar/internal/shared"

var catalogSeed = []Permission{
	{Resource: "user", Action: "read", Description: "Read user information"},
	{Resource: "user", Action: "write", Description: "Create and update users"},
	{Resource: "user", Action: "delete", Description: "Delete users"},
	{Resource: "shop", Action: "read", Description: "Read shop information"},
	{Resource: "shop", Action: "write", Description: "Create and update shops"},
	{Resource: "shop", Action: "delete", Description: "Delete shops"},
	{Resource: "product", Action: "read", Description: "Read product information"},
	{Resource: "product", Action: "write", Description: "Create and update products"},
	{Resource: "product", Action: "delete", Description: "Delete products"},
	{Resource: "order", Action: "read", Description: "Read order information"},
	{Resource: "order", Action: "write", Description: "Create and update orders"},
	{Resource: "admin", Action: "all", Description: "Full administrative access"},
}

type roleSeed struct {
	description string
	permissions []string
}

// Customers intentionally carry no permissions; everything they may do is
// gated by ownership checks, not the permission catalog.
var systemRoleSeed = map[string]roleSeed{
	shared.RoleAdmin: {
		description: "Administrator role with full access",
		permissions: shared.CatalogScopes(),
	},
	shared.RoleShopOwner: {
		description: "Shop owner role",
		permissions: []string{
			shared.PermShopRead,
			shared.PermShopWrite,
			shared.PermProductRead,
			shared.PermProductWrite,
			shared.PermProductDelete,
			shared.PermOrderRead,
		},
	},
	shared.RoleCustomer: {
		description: "Regular customer role",
	},
}
