package shops

import "time"

// AdminShop is the administrative read model of a shop.
type AdminShop struct {
	ID              int64
	OwnerID         int64
	OwnerUsername   string
	Name            string
	IsBlocked       bool
	BlockedReason   string
	StrikeCount     int
	Verification    string
	RejectionReason string
	DeletedAt       *time.Time
	CreatedAt       time.Time
}

// DependentCounts enumerates rows a shop cascade would touch.
type DependentCounts struct {
	Products int
	Services int
	Posts    int
}

// StatusFilter narrows listings by moderation state.
type StatusFilter string

const (
	StatusAny     StatusFilter = ""
	StatusActive  StatusFilter = "active"
	StatusBlocked StatusFilter = "blocked"
	StatusDeleted StatusFilter = "deleted"
)

// ListFilter holds listing parameters. Verification narrows the list to one
// review status, which is how pending shops are queued for admins.
type ListFilter struct {
	Query        string
	OwnerID      int64
	Status       StatusFilter
	Verification string
	Page         int
	PerPage      int
}
