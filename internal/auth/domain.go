package auth

import "time"

// User represents the credential row backing a principal.
type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is an authenticated identity together with its approved role
// names and the flattened effective permission set. Built once per request
// by the Resolver; a pure snapshot, never written back.
type Principal struct {
	ID            int64
	Email         string
	Username      string
	IsActive      bool
	IsVerified    bool
	IsBlocked     bool
	BlockedReason string
	DeletedAt     *time.Time
	Roles         []string
	Permissions   []string
}

// RoleNames returns the principal's approved role names.
func (p *Principal) RoleNames() []string {
	if p == nil {
		return nil
	}
	return p.Roles
}

// PermissionNames returns the flattened effective permission set.
func (p *Principal) PermissionNames() []string {
	if p == nil {
		return nil
	}
	return p.Permissions
}
