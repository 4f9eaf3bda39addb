package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Repository defines persistence operations for the catalog and registry.
type Repository interface {
	GetRole(ctx context.Context, id int64) (Role, error)
	GetRoleByName(ctx context.Context, name string) (Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	CreateRole(ctx context.Context, name, description string, isSystem bool) (Role, error)
	UpdateRole(ctx context.Context, id int64, name, description string) (Role, error)
	DeleteRole(ctx context.Context, id int64) (int64, error)
	CountApprovedAssignments(ctx context.Context, roleID int64) (int, error)

	GetPermission(ctx context.Context, id int64) (Permission, error)
	FindPermission(ctx context.Context, resource, action string) (Permission, error)
	ListPermissions(ctx context.Context) ([]Permission, error)
	CreatePermission(ctx context.Context, perm Permission) (Permission, error)
	UpsertPermission(ctx context.Context, perm Permission) (Permission, error)
	DeletePermission(ctx context.Context, id int64) (int64, error)
	CountPermissionRefs(ctx context.Context, permissionID int64) (int, error)
	ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error)
	AttachPermission(ctx context.Context, roleID, permissionID int64) error
	DetachPermission(ctx context.Context, roleID, permissionID int64) error

	GetAssignment(ctx context.Context, id int64) (Assignment, error)
	ListAssignments(ctx context.Context, status AssignmentStatus) ([]Assignment, error)
	CreateAssignment(ctx context.Context, userID, roleID int64, status AssignmentStatus) (Assignment, error)
	UpdateAssignmentStatus(ctx context.Context, id int64, status AssignmentStatus) (Assignment, error)
	DeleteAssignment(ctx context.Context, userID, roleID int64) (int64, error)
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
	UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const roleColumns = `id, name, description, is_system, created_at, updated_at`

func (r *PGRepository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id)
	return scanRole(row)
}

func (r *PGRepository) GetRoleByName(ctx context.Context, name string) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
	return scanRole(row)
}

func (r *PGRepository) ListRoles(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+roleColumns+` FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *PGRepository) CreateRole(ctx context.Context, name, description string, isSystem bool) (Role, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO roles (name, description, is_system) VALUES ($1, $2, $3) RETURNING `+roleColumns, name, description, isSystem)
	return scanRole(row)
}

func (r *PGRepository) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	row := r.pool.QueryRow(ctx, `UPDATE roles SET name = $2, description = $3, updated_at = NOW() WHERE id = $1 RETURNING `+roleColumns, id, name, description)
	return scanRole(row)
}

func (r *PGRepository) DeleteRole(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) CountApprovedAssignments(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM user_roles WHERE role_id = $1 AND status = 'approved'`, roleID).Scan(&count)
	return count, err
}

const permColumns = `id, resource, action, description`

func (r *PGRepository) GetPermission(ctx context.Context, id int64) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permColumns+` FROM permissions WHERE id = $1`, id)
	return scanPermission(row)
}

func (r *PGRepository) FindPermission(ctx context.Context, resource, action string) (Permission, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+permColumns+` FROM permissions WHERE resource = $1 AND action = $2`, resource, action)
	return scanPermission(row)
}

func (r *PGRepository) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+permColumns+` FROM permissions ORDER BY resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *PGRepository) CreatePermission(ctx context.Context, perm Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO permissions (resource, action, description) VALUES ($1, $2, $3) RETURNING `+permColumns, perm.Resource, perm.Action, perm.Description)
	return scanPermission(row)
}

func (r *PGRepository) UpsertPermission(ctx context.Context, perm Permission) (Permission, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO permissions (resource, action, description) VALUES ($1, $2, $3) ON CONFLICT (resource, action) DO UPDATE SET description = EXCLUDED.description RETURNING `+permColumns, perm.Resource, perm.Action, perm.Description)
	return scanPermission(row)
}

func (r *PGRepository) DeletePermission(ctx context.Context, id int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) CountPermissionRefs(ctx context.Context, permissionID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM role_permissions WHERE permission_id = $1`, permissionID).Scan(&count)
	return count, err
}

func (r *PGRepository) ListRolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := r.pool.Query(ctx, `SELECT p.id, p.resource, p.action, p.description FROM role_permissions rp JOIN permissions p ON p.id = rp.permission_id WHERE rp.role_id = $1 ORDER BY p.resource, p.action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}

func (r *PGRepository) AttachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, roleID, permissionID)
	return err
}

func (r *PGRepository) DetachPermission(ctx context.Context, roleID, permissionID int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1 AND permission_id = $2`, roleID, permissionID)
	return err
}

const assignmentColumns = `ur.id, ur.user_id, ur.role_id, r.name, ur.status, ur.created_at, ur.updated_at`

func (r *PGRepository) GetAssignment(ctx context.Context, id int64) (Assignment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+assignmentColumns+` FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.id = $1`, id)
	return scanAssignment(row)
}

func (r *PGRepository) ListAssignments(ctx context.Context, status AssignmentStatus) ([]Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM user_roles ur JOIN roles r ON r.id = ur.role_id`
	args := []any{}
	if status != "" {
		query += ` WHERE ur.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY ur.created_at`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleName, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

func (r *PGRepository) CreateAssignment(ctx context.Context, userID, roleID int64, status AssignmentStatus) (Assignment, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `INSERT INTO user_roles (user_id, role_id, status) VALUES ($1, $2, $3) RETURNING id`, userID, roleID, status).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return Assignment{}, ErrAssignmentExists
		}
		return Assignment{}, err
	}
	return r.GetAssignment(ctx, id)
}

func (r *PGRepository) UpdateAssignmentStatus(ctx context.Context, id int64, status AssignmentStatus) (Assignment, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE user_roles SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return Assignment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Assignment{}, shared.ErrNotFound
	}
	return r.GetAssignment(ctx, id)
}

func (r *PGRepository) DeleteAssignment(ctx context.Context, userID, roleID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	return r.stringList(ctx, `SELECT r.name FROM user_roles ur JOIN roles r ON r.id = ur.role_id WHERE ur.user_id = $1 AND ur.status = 'approved' ORDER BY r.name`, userID)
}

func (r *PGRepository) UserEffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return r.stringList(ctx, `SELECT DISTINCT p.resource || '.' || p.action FROM user_roles ur JOIN role_permissions rp ON rp.role_id = ur.role_id JOIN permissions p ON p.id = rp.permission_id WHERE ur.user_id = $1 AND ur.status = 'approved'`, userID)
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

func scanRole(row pgx.Row) (Role, error) {
	var role Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, shared.ErrNotFound
		}
		return Role{}, err
	}
	return role, nil
}

func scanPermission(row pgx.Row) (Permission, error) {
	var perm Permission
	err := row.Scan(&perm.ID, &perm.Resource, &perm.Action, &perm.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permission{}, shared.ErrNotFound
		}
		return Permission{}, err
	}
	return perm, nil
}

func scanAssignment(row pgx.Row) (Assignment, error) {
	var a Assignment
	err := row.Scan(&a.ID, &a.UserID, &a.RoleID, &a.RoleName, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Assignment{}, shared.ErrNotFound
		}
		return Assignment{}, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Repository = (*PGRepository)(nil)
