package shared

// Marketplace permission names, formed as resource.action.
const (
	PermUserRead   = "user.read"
	PermUserWrite  = "user.write"
	PermUserDelete = "user.delete"

	PermShopRead   = "shop.read"
	PermShopWrite  = "shop.write"
	PermShopDelete = "shop.delete"

	PermProductRead   = "product.read"
	PermProductWrite  = "product.write"
	PermProductDelete = "product.delete"

	PermOrderRead  = "order.read"
	PermOrderWrite = "order.write"

	PermAdminAll = "admin.all"
)

// System role names. Rows flagged is_system cannot be changed at runtime.
const (
	RoleAdmin     = "admin"
	RoleShopOwner = "shop_owner"
	RoleCustomer  = "customer"
)

// CatalogScopes lists every permission seeded into the catalog.
func CatalogScopes() []string {
	return []string{
		PermUserRead,
		PermUserWrite,
		PermUserDelete,
		PermShopRead,
		PermShopWrite,
		PermShopDelete,
		PermProductRead,
		PermProductWrite,
		PermProductDelete,
		PermOrderRead,
		PermOrderWrite,
		PermAdminAll,
	}
}
