package rbac

import "time"

// Permission represents an atomic capability identified by (resource, action).
type Permission struct {
	ID          int64
	Resource    string
	Action      string
	Description string
}

// Name returns the canonical permission token, e.g. "shop.write".
func (p Permission) Name() string {
	return p.Resource + "." + p.Action
}

// Role represents a named permission bundle. System roles are immutable.
type Role struct {
	ID          int64
	Name        string
	Description string
	IsSystem    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AssignmentStatus tracks the lifecycle of a user-role assignment.
// Only approved assignments contribute to the effective permission set.
type AssignmentStatus string

const (
	StatusPending  AssignmentStatus = "pending"
	StatusApproved AssignmentStatus = "approved"
	StatusRejected AssignmentStatus = "rejected"
)

// Assignment ties a user to a role with an approval status.
type Assignment struct {
	ID        int64
	UserID    int64
	RoleID    int64
	RoleName  string
	Status    AssignmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the surface the authorization guard needs from a resolved
// identity. Implemented by auth.Principal.
type Principal interface {
	RoleNames() []string
	PermissionNames() []string
}
