package users

import "time"

// AdminUser is the administrative read model of a user, combining account
// fields with moderation state and approved role names.
type AdminUser struct {
	ID            int64
	Email         string
	Username      string
	IsActive      bool
	IsVerified    bool
	IsBlocked     bool
	BlockedReason string
	WarningCount  int
	Roles         []string
	DeletedAt     *time.Time
	CreatedAt     time.Time
}

// DependentCounts enumerates rows that a user cascade would touch.
type DependentCounts struct {
	Shops    int
	Products int
	Services int
	Posts    int
	Comments int
}

// StatusFilter narrows listings by moderation state.
type StatusFilter string

const (
	StatusAny     StatusFilter = ""
	StatusActive  StatusFilter = "active"
	StatusBlocked StatusFilter = "blocked"
	StatusDeleted StatusFilter = "deleted"
)

// ListFilter holds listing parameters.
type ListFilter struct {
	Query   string
	Status  StatusFilter
	Page    int
	PerPage int
}
