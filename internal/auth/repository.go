package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetPrincipal(ctx context.Context, id int64) (*Principal, error)
	CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, token string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user credential row by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx, `SELECT id, email, username, password_hash, is_active, created_at, updated_at FROM users WHERE email = $1 AND deleted_at IS NULL`, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetPrincipal loads the identity row together with its approved role names
// and the union of those roles' permissions. Soft-deleted rows still load.
func (r *PGRepository) GetPrincipal(ctx context.Context, id int64) (*Principal, error) {
	var (
		p       Principal
		reason  pgtype.Text
		deleted pgtype.Timestamptz
	)
	err := r.pool.QueryRow(ctx, `SELECT id, email, username, is_active, is_verified, is_blocked, blocked_reason, deleted_at FROM users WHERE id = $1`, id).
		Scan(&p.ID, &p.Email, &p.Username, &p.IsActive, &p.IsVerified, &p.IsBlocked, &reason, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	if reason.Valid {
		p.BlockedReason = reason.String
	}
	if deleted.Valid {
		at := deleted.Time
		p.DeletedAt = &at
	}

	p.Roles, err = r.stringList(ctx, `SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 AND ur.status = 'approved' ORDER BY r.name`, id)
	if err != nil {
		return nil, err
	}
	p.Permissions, err = r.stringList(ctx, `SELECT DISTINCT p.resource || '.' || p.action FROM user_roles ur JOIN role_permissions rp ON rp.role_id = ur.role_id JOIN permissions p ON p.id = rp.permission_id WHERE ur.user_id = $1 AND ur.status = 'approved'`, id)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateSession persists a login session row for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time, ip, ua string) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua) VALUES ($1, $2, $3, $4, $5, $6)`,
		token, userID,
		pgtype.Timestamptz{Time: now, Valid: true},
		pgtype.Timestamptz{Time: expiresAt.UTC(), Valid: true},
		pgtype.Text{String: ip, Valid: ip != ""},
		pgtype.Text{String: ua, Valid: ua != ""})
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, token)
	return err
}

func (r *PGRepository) stringList(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var values []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
