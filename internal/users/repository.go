package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// RepositoryPort defines data access for the admin user read model.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filter ListFilter) ([]AdminUser, int, error)
	GetUser(ctx context.Context, id int64) (AdminUser, error)
	CountDependents(ctx context.Context, userID int64) (DependentCounts, error)
}

// Repository implements RepositoryPort on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, email, username, is_active, is_verified, is_blocked, blocked_reason, warning_count, deleted_at, created_at`

func (r *Repository) ListUsers(ctx context.Context, filter ListFilter) ([]AdminUser, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pag := shared.NewPagination(filter.Page, filter.PerPage, total)
	offset := (pag.Page - 1) * pag.PerPage
	query := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, userColumns, where, pag.PerPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []AdminUser
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, user)
	}
	return out, total, rows.Err()
}

func (r *Repository) GetUser(ctx context.Context, id int64) (AdminUser, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return AdminUser{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 AND ur.status = 'approved' ORDER BY r.name`, id)
	if err != nil {
		return AdminUser{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return AdminUser{}, err
		}
		user.Roles = append(user.Roles, name)
	}
	return user, rows.Err()
}

// CountDependents counts everything a delete cascade for this user would
// touch, including rows already soft-deleted.
func (r *Repository) CountDependents(ctx context.Context, userID int64) (DependentCounts, error) {
	var counts DependentCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM shops WHERE owner_id = $1),
			(SELECT COUNT(*) FROM products p JOIN shops s ON s.id = p.shop_id WHERE s.owner_id = $1),
			(SELECT COUNT(*) FROM services sv JOIN shops s ON s.id = sv.shop_id WHERE s.owner_id = $1),
			(SELECT COUNT(*) FROM posts WHERE user_id = $1),
			(SELECT COUNT(*) FROM comments WHERE user_id = $1)`, userID).
		Scan(&counts.Shops, &counts.Products, &counts.Services, &counts.Posts, &counts.Comments)
	return counts, err
}

func buildFilter(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(email ILIKE $%d OR username ILIKE $%d)", n, n))
	}
	switch filter.Status {
	case StatusActive:
		clauses = append(clauses, "is_blocked = FALSE AND deleted_at IS NULL")
	case StatusBlocked:
		clauses = append(clauses, "is_blocked = TRUE")
	case StatusDeleted:
		clauses = append(clauses, "deleted_at IS NOT NULL")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanUser(row pgx.Row) (AdminUser, error) {
	var (
		user    AdminUser
		reason  *string
		deleted *time.Time
	)
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.IsActive, &user.IsVerified, &user.IsBlocked, &reason, &user.WarningCount, &deleted, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminUser{}, shared.ErrNotFound
		}
		return AdminUser{}, err
	}
	if reason != nil {
		user.BlockedReason = *reason
	}
	user.DeletedAt = deleted
	return user, nil
}

var _ RepositoryPort = (*Repository)(nil)
