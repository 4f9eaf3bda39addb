package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lokapasar/lokapasar/internal/platform/db"
	"github.com/lokapasar/lokapasar/internal/shared"
)

// Repository defines persistence for trust state and delete cascades.
// WithTx re-binds the repository onto a transaction, so every method called
// inside the callback shares one atomic unit.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	GetUserState(ctx context.Context, userID int64) (UserState, error)
	InsertWarning(ctx context.Context, warning Warning) (Warning, error)
	ListWarnings(ctx context.Context, userID int64) ([]Warning, error)
	IncrementWarningCount(ctx context.Context, userID int64) (int, error)
	SetUserBlocked(ctx context.Context, userID int64, reason string) error
	ClearUserBlocked(ctx context.Context, userID int64) error
	SetUserVerified(ctx context.Context, userID int64) (bool, error)

	GetShopState(ctx context.Context, shopID int64) (ShopState, error)
	InsertStrike(ctx context.Context, strike Strike) (Strike, error)
	ListStrikes(ctx context.Context, shopID int64) ([]Strike, error)
	IncrementStrikeCount(ctx context.Context, shopID int64) (int, error)
	SetShopBlocked(ctx context.Context, shopID int64, reason string) error
	ClearShopBlocked(ctx context.Context, shopID int64) error
	SetShopVerification(ctx context.Context, shopID int64, status, reason string) error

	MarkUserDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error)
	RestoreUserRow(ctx context.Context, userID int64) (int64, error)
	MarkShopDeleted(ctx context.Context, shopID int64, stamp time.Time) (int64, error)
	RestoreShopRow(ctx context.Context, shopID int64) (int64, error)
	MarkShopsDeletedByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error)
	RestoreShopsByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error)
	MarkShopDependentsDeleted(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error)
	RestoreShopDependents(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error)
	MarkUserContentDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error)
	RestoreUserContent(ctx context.Context, userID int64, stamp time.Time) (int64, error)

	CountExpiredWarnings(ctx context.Context, now time.Time) (int64, error)
	CountExpiredStrikes(ctx context.Context, now time.Time) (int64, error)
	ReconcileWarningCounts(ctx context.Context, now time.Time) (int64, error)
	ReconcileStrikeCounts(ctx context.Context, now time.Time) (int64, error)

	AppendAudit(ctx context.Context, log shared.AuditLog) error
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
	db   dbtx
}

// NewRepository constructs a pool-backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool, db: pool}
}

// WithTx runs fn with a repository bound to a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{pool: r.pool, db: tx})
	})
}

func (r *PGRepository) GetUserState(ctx context.Context, userID int64) (UserState, error) {
	var (
		state   UserState
		reason  *string
		deleted *time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT id, username, is_active, is_verified, is_blocked, blocked_reason, warning_count, deleted_at FROM users WHERE id = $1`, userID).
		Scan(&state.ID, &state.Username, &state.IsActive, &state.IsVerified, &state.IsBlocked, &reason, &state.WarningCount, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserState{}, shared.ErrNotFound
		}
		return UserState{}, err
	}
	if reason != nil {
		state.BlockedReason = *reason
	}
	state.DeletedAt = deleted
	return state, nil
}

func (r *PGRepository) InsertWarning(ctx context.Context, warning Warning) (Warning, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO user_warnings (user_id, reason, severity, issued_by, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		warning.UserID, warning.Reason, warning.Severity, warning.IssuedBy, warning.ExpiresAt,
	).Scan(&warning.ID, &warning.CreatedAt)
	return warning, err
}

func (r *PGRepository) ListWarnings(ctx context.Context, userID int64) ([]Warning, error) {
	rows, err := r.db.Query(ctx, `SELECT id, user_id, reason, severity, issued_by, created_at, expires_at FROM user_warnings WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var warnings []Warning
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.ID, &w.UserID, &w.Reason, &w.Severity, &w.IssuedBy, &w.CreatedAt, &w.ExpiresAt); err != nil {
			return nil, err
		}
		warnings = append(warnings, w)
	}
	return warnings, rows.Err()
}

// IncrementWarningCount bumps the counter atomically and returns the new
// value. Two concurrent escalations cannot observe the same count.
func (r *PGRepository) IncrementWarningCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `UPDATE users SET warning_count = warning_count + 1, updated_at = NOW() WHERE id = $1 RETURNING warning_count`, userID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return count, err
}

func (r *PGRepository) SetUserBlocked(ctx context.Context, userID int64, reason string) error {
	return r.exec(ctx, `UPDATE users SET is_blocked = TRUE, blocked_reason = $2, updated_at = NOW() WHERE id = $1`, userID, reason)
}

func (r *PGRepository) ClearUserBlocked(ctx context.Context, userID int64) error {
	return r.exec(ctx, `UPDATE users SET is_blocked = FALSE, blocked_reason = NULL, warning_count = 0, updated_at = NOW() WHERE id = $1`, userID)
}

func (r *PGRepository) SetUserVerified(ctx context.Context, userID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_verified = TRUE, updated_at = NOW() WHERE id = $1 AND is_verified = FALSE`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) GetShopState(ctx context.Context, shopID int64) (ShopState, error) {
	var (
		state   ShopState
		reason  *string
		deleted *time.Time
	)
	err := r.db.QueryRow(ctx, `SELECT id, owner_id, name, is_blocked, blocked_reason, strike_count, verification_status, deleted_at FROM shops WHERE id = $1`, shopID).
		Scan(&state.ID, &state.OwnerID, &state.Name, &state.IsBlocked, &reason, &state.StrikeCount, &state.VerificationStatus, &deleted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ShopState{}, shared.ErrNotFound
		}
		return ShopState{}, err
	}
	if reason != nil {
		state.BlockedReason = *reason
	}
	state.DeletedAt = deleted
	return state, nil
}

func (r *PGRepository) InsertStrike(ctx context.Context, strike Strike) (Strike, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO shop_strikes (shop_id, reason, severity, issued_by, expires_at) VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		strike.ShopID, strike.Reason, strike.Severity, strike.IssuedBy, strike.ExpiresAt,
	).Scan(&strike.ID, &strike.CreatedAt)
	return strike, err
}

func (r *PGRepository) ListStrikes(ctx context.Context, shopID int64) ([]Strike, error) {
	rows, err := r.db.Query(ctx, `SELECT id, shop_id, reason, severity, issued_by, created_at, expires_at FROM shop_strikes WHERE shop_id = $1 ORDER BY created_at DESC`, shopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var strikes []Strike
	for rows.Next() {
		var s Strike
		if err := rows.Scan(&s.ID, &s.ShopID, &s.Reason, &s.Severity, &s.IssuedBy, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		strikes = append(strikes, s)
	}
	return strikes, rows.Err()
}

func (r *PGRepository) IncrementStrikeCount(ctx context.Context, shopID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `UPDATE shops SET strike_count = strike_count + 1, updated_at = NOW() WHERE id = $1 RETURNING strike_count`, shopID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return count, err
}

func (r *PGRepository) SetShopBlocked(ctx context.Context, shopID int64, reason string) error {
	return r.exec(ctx, `UPDATE shops SET is_blocked = TRUE, blocked_reason = $2, updated_at = NOW() WHERE id = $1`, shopID, reason)
}

func (r *PGRepository) ClearShopBlocked(ctx context.Context, shopID int64) error {
	return r.exec(ctx, `UPDATE shops SET is_blocked = FALSE, blocked_reason = NULL, strike_count = 0, updated_at = NOW() WHERE id = $1`, shopID)
}

// SetShopVerification moves the shop through its review lifecycle. The reason
// is recorded for rejections and cleared otherwise.
func (r *PGRepository) SetShopVerification(ctx context.Context, shopID int64, status, reason string) error {
	var rejection *string
	if status == VerificationRejected {
		rejection = &reason
	}
	return r.exec(ctx, `UPDATE shops SET verification_status = $2, rejection_reason = $3, updated_at = NOW() WHERE id = $1`, shopID, status, rejection)
}

// Soft-delete marks only live rows; rows deleted in an earlier, independent
// operation keep their original stamp so a later restore will not touch them.

func (r *PGRepository) MarkUserDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET deleted_at = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, userID, stamp)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) RestoreUserRow(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) MarkShopDeleted(ctx context.Context, shopID int64, stamp time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE shops SET deleted_at = $2, updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, shopID, stamp)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) RestoreShopRow(ctx context.Context, shopID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE shops SET deleted_at = NULL, updated_at = NOW() WHERE id = $1 AND deleted_at IS NOT NULL`, shopID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) MarkShopsDeletedByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error) {
	return r.idList(ctx, `UPDATE shops SET deleted_at = $2, updated_at = NOW() WHERE owner_id = $1 AND deleted_at IS NULL RETURNING id`, ownerID, stamp)
}

func (r *PGRepository) RestoreShopsByOwner(ctx context.Context, ownerID int64, stamp time.Time) ([]int64, error) {
	return r.idList(ctx, `UPDATE shops SET deleted_at = NULL, updated_at = NOW() WHERE owner_id = $1 AND deleted_at = $2 RETURNING id`, ownerID, stamp)
}

func (r *PGRepository) MarkShopDependentsDeleted(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error) {
	if len(shopIDs) == 0 {
		return 0, nil
	}
	var total int64
	for _, table := range []string{"products", "services", "posts"} {
		tag, err := r.db.Exec(ctx, `UPDATE `+table+` SET deleted_at = $2 WHERE shop_id = ANY($1) AND deleted_at IS NULL`, shopIDs, stamp)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func (r *PGRepository) RestoreShopDependents(ctx context.Context, shopIDs []int64, stamp time.Time) (int64, error) {
	if len(shopIDs) == 0 {
		return 0, nil
	}
	var total int64
	for _, table := range []string{"products", "services", "posts"} {
		tag, err := r.db.Exec(ctx, `UPDATE `+table+` SET deleted_at = NULL WHERE shop_id = ANY($1) AND deleted_at = $2`, shopIDs, stamp)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func (r *PGRepository) MarkUserContentDeleted(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"posts", "comments"} {
		tag, err := r.db.Exec(ctx, `UPDATE `+table+` SET deleted_at = $2 WHERE user_id = $1 AND deleted_at IS NULL`, userID, stamp)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

func (r *PGRepository) RestoreUserContent(ctx context.Context, userID int64, stamp time.Time) (int64, error) {
	var total int64
	for _, table := range []string{"posts", "comments"} {
		tag, err := r.db.Exec(ctx, `UPDATE `+table+` SET deleted_at = NULL WHERE user_id = $1 AND deleted_at = $2`, userID, stamp)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// Expired records stay on file as disciplinary history; the sweep only counts
// them and stops them from feeding the threshold.

func (r *PGRepository) CountExpiredWarnings(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM user_warnings WHERE expires_at IS NOT NULL AND expires_at <= $1`, now).Scan(&count)
	return count, err
}

func (r *PGRepository) CountExpiredStrikes(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM shop_strikes WHERE expires_at IS NOT NULL AND expires_at <= $1`, now).Scan(&count)
	return count, err
}

// ReconcileWarningCounts re-derives warning_count from the warnings still
// active at the given instant for unblocked users. Blocked users keep their
// counter; the block and its history stay until an admin lifts it.
func (r *PGRepository) ReconcileWarningCounts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE users u SET warning_count = w.live, updated_at = NOW()
		FROM (
			SELECT u2.id, COUNT(uw.id) AS live
			FROM users u2
			LEFT JOIN user_warnings uw ON uw.user_id = u2.id
				AND (uw.expires_at IS NULL OR uw.expires_at > $1)
			GROUP BY u2.id
		) w
		WHERE w.id = u.id AND u.is_blocked = FALSE AND u.warning_count <> w.live`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) ReconcileStrikeCounts(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE shops s SET strike_count = w.live, updated_at = NOW()
		FROM (
			SELECT s2.id, COUNT(ss.id) AS live
			FROM shops s2
			LEFT JOIN shop_strikes ss ON ss.shop_id = s2.id
				AND (ss.expires_at IS NULL OR ss.expires_at > $1)
			GROUP BY s2.id
		) w
		WHERE w.id = s.id AND s.is_blocked = FALSE AND s.strike_count <> w.live`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) AppendAudit(ctx context.Context, log shared.AuditLog) error {
	return shared.AppendAudit(ctx, r.db, log)
}

func (r *PGRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) idList(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
