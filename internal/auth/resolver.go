package auth

import (
	"context"
	"errors"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Resolver failure modes, checked in order; the first match wins.
var (
	ErrInvalidCredential  = shared.Authentication("invalid_credential", "invalid or expired credential")
	ErrPrincipalNotFound  = shared.Authentication("principal_not_found", "principal no longer exists")
	ErrAccountInactive    = shared.Authorization("account_inactive", "account is inactive")
	ErrAccountSoftDeleted = shared.Authorization("account_deleted", "account has been deleted")

	// ErrAccountBlocked matches any blocked-account error via errors.Is;
	// concrete values carry the block reason in the message.
	ErrAccountBlocked = &shared.Error{Kind: shared.KindAuthorization, Code: "account_blocked"}
)

// AccountBlocked builds the blocked-account error carrying the reason.
func AccountBlocked(reason string) error {
	if reason == "" {
		reason = "blocked by administrator"
	}
	return shared.Authorization("account_blocked", "account is blocked: %s", reason)
}

// SessionStore resolves opaque tokens to live sessions.
type SessionStore interface {
	Lookup(ctx context.Context, token string) (*shared.Session, error)
}

// Resolver turns a session credential into a Principal. Pure read, safe to
// call once per request.
type Resolver struct {
	sessions SessionStore
	repo     Repository
}

// NewResolver constructs a Resolver.
func NewResolver(sessions SessionStore, repo Repository) *Resolver {
	return &Resolver{sessions: sessions, repo: repo}
}

// Resolve validates the credential and loads the acting identity with its
// approved roles expanded into the effective permission set.
//
// Soft-deleted principals still load, so their state can be inspected, but
// they terminate with ErrAccountSoftDeleted like any other dead end.
func (r *Resolver) Resolve(ctx context.Context, credential string) (*Principal, error) {
	sess, err := r.sessions.Lookup(ctx, credential)
	if err != nil {
		if errors.Is(err, shared.ErrSessionNotFound) {
			return nil, ErrInvalidCredential
		}
		return nil, err
	}

	principal, err := r.repo.GetPrincipal(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	switch {
	case !principal.IsActive:
		return nil, ErrAccountInactive
	case principal.IsBlocked:
		return nil, AccountBlocked(principal.BlockedReason)
	case principal.DeletedAt != nil:
		return nil, ErrAccountSoftDeleted
	}

	return principal, nil
}
