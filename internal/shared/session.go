package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound indicates the token does not map to a live session.
var ErrSessionNotFound = errors.New("session not found")

// Session holds the authenticated state tied to an opaque token.
type Session struct {
	Token    string    `json:"-"`
	UserID   int64     `json:"user_id"`
	IssuedAt time.Time `json:"issued_at"`
	IP       string    `json:"ip,omitempty"`
	UA       string    `json:"ua,omitempty"`
}

// SessionManager stores sessions in Redis keyed by an opaque token. Clients
// send the token either as a bearer header or in a cookie.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	ttl        time.Duration
	secure     bool
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		ttl:        ttl,
		secure:     secure,
	}
}

// Issue creates and stores a new session for userID.
func (sm *SessionManager) Issue(ctx context.Context, userID int64, ip, ua string) (*Session, error) {
	sess := &Session{
		Token:    uuid.NewString(),
		UserID:   userID,
		IssuedAt: time.Now().UTC(),
		IP:       ip,
		UA:       ua,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.redisKey(sess.Token), data, sm.ttl).Err(); err != nil {
		return nil, err
	}
	return sess, nil
}

// Lookup resolves a token to its session, or ErrSessionNotFound.
func (sm *SessionManager) Lookup(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, sm.redisKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.Token = token
	return &sess, nil
}

// Revoke deletes the session, if present.
func (sm *SessionManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.redisKey(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

// TokenFromRequest extracts the session token, preferring the bearer header.
func (sm *SessionManager) TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sm.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// WriteCookie sets the session cookie for browser clients.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

func (sm *SessionManager) redisKey(token string) string {
	return "session:" + token
}
