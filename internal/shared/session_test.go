package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "lokapasar_session", time.Hour, false), srv
}

func TestSessionIssueAndLookup(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, 42, "10.0.0.1", "test-agent")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)

	got, err := sm.Lookup(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, sess.Token, got.Token)
}

func TestSessionLookupUnknownToken(t *testing.T) {
	sm, _ := newTestManager(t)

	_, err := sm.Lookup(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = sm.Lookup(context.Background(), "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExpiry(t *testing.T) {
	sm, srv := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, 7, "", "")
	require.NoError(t, err)

	srv.FastForward(2 * time.Hour)

	_, err = sm.Lookup(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionRevoke(t *testing.T) {
	sm, _ := newTestManager(t)
	ctx := context.Background()

	sess, err := sm.Issue(ctx, 9, "", "")
	require.NoError(t, err)
	require.NoError(t, sm.Revoke(ctx, sess.Token))

	_, err = sm.Lookup(ctx, sess.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Revoking twice is a no-op.
	require.NoError(t, sm.Revoke(ctx, sess.Token))
}

func TestTokenFromRequest(t *testing.T) {
	sm, _ := newTestManager(t)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer abc123")
	assert.Equal(t, "abc123", sm.TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: "lokapasar_session", Value: "cookie-token"})
	assert.Equal(t, "cookie-token", sm.TokenFromRequest(r))

	// Bearer wins over the cookie when both are present.
	r.Header.Set("Authorization", "Bearer header-token")
	assert.Equal(t, "header-token", sm.TokenFromRequest(r))

	r = httptest.NewRequest("GET", "/", nil)
	assert.Empty(t, sm.TokenFromRequest(r))
}
