package moderation

import "time"

// UserState is the moderation view of a user row.
type UserState struct {
	ID            int64
	Username      string
	IsActive      bool
	IsVerified    bool
	IsBlocked     bool
	BlockedReason string
	WarningCount  int
	DeletedAt     *time.Time
}

// ShopState is the moderation view of a shop row.
type ShopState struct {
	ID                 int64
	OwnerID            int64
	Name               string
	IsBlocked          bool
	BlockedReason      string
	StrikeCount        int
	VerificationStatus string
	DeletedAt          *time.Time
}

// Shop verification lifecycle. New shops start pending and move to verified
// or rejected after an admin review.
const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"
)

// Warning severities for users; strikes against shops use their own scale.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	StrikeSeverityWarning  = "warning"
	StrikeSeverityMinor    = "minor"
	StrikeSeverityMajor    = "major"
	StrikeSeverityCritical = "critical"
)

// Warning is a recorded disciplinary note against a user. A warning with a
// nil ExpiresAt never expires; expired warnings stay on record and only stop
// counting toward the threshold.
type Warning struct {
	ID        int64
	UserID    int64
	Reason    string
	Severity  string
	IssuedBy  int64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// Strike is a recorded disciplinary note against a shop.
type Strike struct {
	ID        int64
	ShopID    int64
	Reason    string
	Severity  string
	IssuedBy  int64
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// WarningResult reports the outcome of issuing a warning, including whether
// the escalation threshold was crossed in the same transaction.
type WarningResult struct {
	Warning      Warning
	WarningCount int
	AutoBlocked  bool
}

// StrikeResult reports the outcome of issuing a strike.
type StrikeResult struct {
	Strike      Strike
	StrikeCount int
	AutoBlocked bool
}

// CascadeResult summarizes a soft-delete or restore cascade.
type CascadeResult struct {
	ShopsAffected      int
	DependentsAffected int64
}

// SweepResult summarizes one expiry sweep run. Expired counts report how many
// records are past their expiry at sweep time; the rows themselves are kept.
type SweepResult struct {
	WarningsExpired int64
	StrikesExpired  int64
	UsersReconciled int64
	ShopsReconciled int64
}
