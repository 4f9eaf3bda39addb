package rbac

import "testing"

type fakePrincipal struct {
	roles []string
	perms []string
}

func (f fakePrincipal) RoleNames() []string       { return f.roles }
func (f fakePrincipal) PermissionNames() []string { return f.perms }

func TestHasRole(t *testing.T) {
	p := fakePrincipal{roles: []string{"shop_owner", "Customer"}}

	if !HasRole(p, "shop_owner") {
		t.Fatal("expected shop_owner to match")
	}
	if !HasRole(p, "admin", "customer") {
		t.Fatal("expected any-of match on customer")
	}
	if HasRole(p, "admin") {
		t.Fatal("unexpected admin match")
	}
	if HasRole(p) {
		t.Fatal("empty requirement must not match")
	}
	if HasRole(nil, "admin") {
		t.Fatal("nil principal must not match")
	}
}

func TestHasRoleNormalizes(t *testing.T) {
	p := fakePrincipal{roles: []string{"  Admin "}}
	if !HasRole(p, "admin") {
		t.Fatal("expected case and whitespace insensitive match")
	}
}

func TestHasPermission(t *testing.T) {
	p := fakePrincipal{perms: []string{"shop.read", "product.write"}}

	if !HasPermission(p, "product.write") {
		t.Fatal("expected product.write to match")
	}
	if !HasPermission(p, "user.delete", "shop.read") {
		t.Fatal("expected any-of match on shop.read")
	}
	if HasPermission(p, "user.delete") {
		t.Fatal("unexpected user.delete match")
	}
	if HasPermission(p) {
		t.Fatal("empty requirement must not match")
	}
}
