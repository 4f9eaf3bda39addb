package rbac

import "strings"

// HasRole reports whether the principal holds at least one of the named
// roles. Pure predicate: nothing is loaded beyond what resolve provided.
func HasRole(p Principal, roles ...string) bool {
	if p == nil || len(roles) == 0 {
		return false
	}
	held := make(map[string]struct{})
	for _, name := range p.RoleNames() {
		held[normalize(name)] = struct{}{}
	}
	for _, name := range roles {
		if _, ok := held[normalize(name)]; ok {
			return true
		}
	}
	return false
}

// HasPermission reports whether the principal's effective permission set
// intersects the given permission names.
func HasPermission(p Principal, perms ...string) bool {
	if p == nil || len(perms) == 0 {
		return false
	}
	held := make(map[string]struct{})
	for _, name := range p.PermissionNames() {
		held[normalize(name)] = struct{}{}
	}
	for _, name := range perms {
		if _, ok := held[normalize(name)]; ok {
			return true
		}
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
