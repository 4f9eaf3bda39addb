package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// QueryParams is the resolved window passed to the store.
type QueryParams struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Offset   int
	Limit    int
}

// Repository provides read access to audit_logs.
type Repository interface {
	TimelineWindow(ctx context.Context, params QueryParams) ([]Entry, error)
}

// PGRepository implements Repository on PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds PGRepository instance.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) TimelineWindow(ctx context.Context, params QueryParams) ([]Entry, error) {
	var clauses []string
	var args []any
	add := func(clause string, arg any) {
		args = append(args, arg)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if !params.From.IsZero() {
		add("occurred_at >= $%d", params.From)
	}
	if !params.To.IsZero() {
		add("occurred_at <= $%d", params.To)
	}
	if params.ActorID > 0 {
		add("actor_id = $%d", params.ActorID)
	}
	if params.Entity != "" {
		add("entity = $%d", params.Entity)
	}
	if params.EntityID != "" {
		add("entity_id = $%d", params.EntityID)
	}
	if params.Action != "" {
		add("action = $%d", params.Action)
	}

	query := `SELECT id, actor_id, action, entity, entity_id, meta, occurred_at FROM audit_logs`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY occurred_at DESC, id DESC LIMIT %d OFFSET %d", params.Limit, params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry Entry
			meta  []byte
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.Action, &entry.Entity, &entry.EntityID, &meta, &entry.At); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
