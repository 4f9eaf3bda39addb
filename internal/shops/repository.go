package shops

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

// RepositoryPort defines data access for the admin shop read model.
type RepositoryPort interface {
	ListShops(ctx context.Context, filter ListFilter) ([]AdminShop, int, error)
	GetShop(ctx context.Context, id int64) (AdminShop, error)
	CountDependents(ctx context.Context, shopID int64) (DependentCounts, error)
}

// Repository implements RepositoryPort on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds Repository instance.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const shopColumns = `s.id, s.owner_id, u.username, s.name, s.is_blocked, s.blocked_reason, s.strike_count, s.verification_status, s.rejection_reason, s.deleted_at, s.created_at`

func (r *Repository) ListShops(ctx context.Context, filter ListFilter) ([]AdminShop, int, error) {
	where, args := buildFilter(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shops s JOIN users u ON u.id = s.owner_id`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pag := shared.NewPagination(filter.Page, filter.PerPage, total)
	offset := (pag.Page - 1) * pag.PerPage
	query := fmt.Sprintf(`SELECT %s FROM shops s JOIN users u ON u.id = s.owner_id%s ORDER BY s.created_at DESC LIMIT %d OFFSET %d`, shopColumns, where, pag.PerPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []AdminShop
	for rows.Next() {
		shop, err := scanShop(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, shop)
	}
	return out, total, rows.Err()
}

func (r *Repository) GetShop(ctx context.Context, id int64) (AdminShop, error) {
	return scanShop(r.pool.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops s JOIN users u ON u.id = s.owner_id WHERE s.id = $1`, id))
}

// CountDependents counts everything a delete cascade for this shop would
// touch, including rows already soft-deleted.
func (r *Repository) CountDependents(ctx context.Context, shopID int64) (DependentCounts, error) {
	var counts DependentCounts
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM products WHERE shop_id = $1),
			(SELECT COUNT(*) FROM services WHERE shop_id = $1),
			(SELECT COUNT(*) FROM posts WHERE shop_id = $1)`, shopID).
		Scan(&counts.Products, &counts.Services, &counts.Posts)
	return counts, err
}

func buildFilter(filter ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if q := strings.TrimSpace(filter.Query); q != "" {
		args = append(args, "%"+q+"%")
		clauses = append(clauses, fmt.Sprintf("s.name ILIKE $%d", len(args)))
	}
	if filter.OwnerID > 0 {
		args = append(args, filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("s.owner_id = $%d", len(args)))
	}
	if filter.Verification != "" {
		args = append(args, filter.Verification)
		clauses = append(clauses, fmt.Sprintf("s.verification_status = $%d", len(args)))
	}
	switch filter.Status {
	case StatusActive:
		clauses = append(clauses, "s.is_blocked = FALSE AND s.deleted_at IS NULL")
	case StatusBlocked:
		clauses = append(clauses, "s.is_blocked = TRUE")
	case StatusDeleted:
		clauses = append(clauses, "s.deleted_at IS NOT NULL")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanShop(row pgx.Row) (AdminShop, error) {
	var (
		shop      AdminShop
		reason    *string
		rejection *string
		deleted   *time.Time
	)
	err := row.Scan(&shop.ID, &shop.OwnerID, &shop.OwnerUsername, &shop.Name, &shop.IsBlocked, &reason, &shop.StrikeCount, &shop.Verification, &rejection, &deleted, &shop.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminShop{}, shared.ErrNotFound
		}
		return AdminShop{}, err
	}
	if reason != nil {
		shop.BlockedReason = *reason
	}
	if rejection != nil {
		shop.RejectionReason = *rejection
	}
	shop.DeletedAt = deleted
	return shop, nil
}

var _ RepositoryPort = (*Repository)(nil)
