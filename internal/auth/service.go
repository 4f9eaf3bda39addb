package auth

import (
	"context"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// ErrInvalidLogin covers both unknown email and wrong password so login
// responses never reveal which one failed.
var ErrInvalidLogin = shared.Authentication("invalid_login", "invalid email or password")

// Service wraps authentication business rules.
type Service struct {
	repo     Repository
	sessions *shared.SessionManager
}

// NewService constructs a new Service.
func NewService(repo Repository, sessions *shared.SessionManager) *Service {
	return &Service{repo: repo, sessions: sessions}
}

// Authenticate validates email/password credentials and returns the
// resolved principal. Inactive, blocked and deleted accounts cannot log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Principal, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidLogin
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidLogin
	}

	principal, err := s.repo.GetPrincipal(ctx, user.ID)
	if err != nil {
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

// IssueSession creates a redis session and its postgres audit row.
func (s *Service) IssueSession(ctx context.Context, userID int64, ip, ua string) (*shared.Session, error) {
	sess, err := s.sessions.Issue(ctx, userID, ip, ua)
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.sessions.TTL())
	if err := s.repo.CreateSession(ctx, sess.Token, userID, expiresAt, ip, ua); err != nil {
		// The redis session is authoritative; the row is best-effort audit.
		_ = s.sessions.Revoke(ctx, sess.Token)
		return nil, err
	}
	return sess, nil
}

// RevokeSession tears the session down on both stores.
func (s *Service) RevokeSession(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		return err
	}
	return s.repo.DeleteSession(ctx, token)
}
