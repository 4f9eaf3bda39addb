package auth_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/shared"
)

type stubSessions struct {
	sessions map[string]*shared.Session
}

func (s *stubSessions) Lookup(ctx context.Context, token string) (*shared.Session, error) {
	sess, ok := s.sessions[token]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return sess, nil
}

type stubRepo struct {
	principals map[int64]*auth.Principal
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, shared.ErrNotFound
}

func (s *stubRepo) GetPrincipal(ctx context.Context, id int64) (*auth.Principal, error) {
	p, ok := s.principals[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return p, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, token string) error {
	return nil
}

func newResolver(sessions map[string]*shared.Session, principals map[int64]*auth.Principal) *auth.Resolver {
	return auth.NewResolver(&stubSessions{sessions: sessions}, &stubRepo{principals: principals})
}

func session(userID int64) *shared.Session {
	return &shared.Session{Token: "tok", UserID: userID, IssuedAt: time.Now()}
}

func TestResolveUnknownCredential(t *testing.T) {
	resolver := newResolver(nil, nil)

	_, err := resolver.Resolve(context.Background(), "missing")
	if !errors.Is(err, auth.ErrInvalidCredential) {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestResolvePrincipalGone(t *testing.T) {
	resolver := newResolver(map[string]*shared.Session{"tok": session(7)}, nil)

	_, err := resolver.Resolve(context.Background(), "tok")
	if !errors.Is(err, auth.ErrPrincipalNotFound) {
		t.Fatalf("expected principal not found, got %v", err)
	}
}

func TestResolveTerminalOrdering(t *testing.T) {
	deleted := time.Now()
	cases := []struct {
		name      string
		principal *auth.Principal
		want      error
	}{
		{
			name:      "inactive wins over blocked",
			principal: &auth.Principal{ID: 1, IsActive: false, IsBlocked: true, DeletedAt: &deleted},
			want:      auth.ErrAccountInactive,
		},
		{
			name:      "blocked wins over deleted",
			principal: &auth.Principal{ID: 1, IsActive: true, IsBlocked: true, DeletedAt: &deleted},
			want:      auth.ErrAccountBlocked,
		},
		{
			name:      "deleted",
			principal: &auth.Principal{ID: 1, IsActive: true, DeletedAt: &deleted},
			want:      auth.ErrAccountSoftDeleted,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := newResolver(
				map[string]*shared.Session{"tok": session(1)},
				map[int64]*auth.Principal{1: tc.principal},
			)
			_, err := resolver.Resolve(context.Background(), "tok")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestResolveBlockedCarriesReason(t *testing.T) {
	resolver := newResolver(
		map[string]*shared.Session{"tok": session(1)},
		map[int64]*auth.Principal{1: {ID: 1, IsActive: true, IsBlocked: true, BlockedReason: "repeated policy violations"}},
	)

	_, err := resolver.Resolve(context.Background(), "tok")
	if !errors.Is(err, auth.ErrAccountBlocked) {
		t.Fatalf("expected blocked, got %v", err)
	}
	if !strings.Contains(err.Error(), "repeated policy violations") {
		t.Fatalf("expected reason in message, got %q", err.Error())
	}
}

func TestResolveBlockedDefaultReason(t *testing.T) {
	resolver := newResolver(
		map[string]*shared.Session{"tok": session(1)},
		map[int64]*auth.Principal{1: {ID: 1, IsActive: true, IsBlocked: true}},
	)

	_, err := resolver.Resolve(context.Background(), "tok")
	if !strings.Contains(err.Error(), "blocked by administrator") {
		t.Fatalf("expected default reason, got %q", err.Error())
	}
}

func TestResolveHealthyPrincipal(t *testing.T) {
	resolver := newResolver(
		map[string]*shared.Session{"tok": session(1)},
		map[int64]*auth.Principal{1: {
			ID:          1,
			Email:       "owner@example.com",
			IsActive:    true,
			Roles:       []string{"shop_owner"},
			Permissions: []string{"product.write", "shop.read"},
		}},
	)

	principal, err := resolver.Resolve(context.Background(), "tok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if principal.ID != 1 || len(principal.PermissionNames()) != 2 {
		t.Fatalf("unexpected principal: %+v", principal)
	}
}
