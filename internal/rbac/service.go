package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/lokapasar/lokapasar/internal/shared"
)

// Conflict sentinels. Returned values may wrap these with current state.
var (
	ErrSystemRoleImmutable = shared.Conflict("system_role_immutable", "system roles cannot be modified or deleted")
	ErrRoleNameTaken       = shared.Conflict("role_name_taken", "a role with this name already exists")
	ErrPermissionExists    = shared.Conflict("permission_exists", "a permission with this resource and action already exists")
	ErrPermissionInUse     = &shared.Error{Kind: shared.KindConflict, Code: "permission_in_use", Message: "permission is still referenced by roles"}
	ErrRoleInUse           = &shared.Error{Kind: shared.KindConflict, Code: "role_in_use", Message: "role is still assigned to users"}
	ErrAssignmentExists    = shared.Conflict("assignment_exists", "user already has an assignment for this role")
	ErrAssignmentReviewed  = shared.Conflict("assignment_reviewed", "assignment has already been reviewed")
)

// Input validation failures, mapped to 400 at the transport layer.
var (
	ErrRoleNameRequired = shared.Invalid("role_name_required", "role name is required")
	ErrPermissionFields = shared.Invalid("permission_fields_required", "permission resource and action are required")
)

// Service orchestrates the permission catalog and role registry.
type Service struct {
	repo   Repository
	audit  *shared.AuditLogger
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// ListRoles returns all roles ordered by name.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new non-system role.
func (s *Service) CreateRole(ctx context.Context, name, description string, actorID int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrRoleNameRequired
	}
	if _, err := s.repo.GetRoleByName(ctx, name); err == nil {
		return Role{}, ErrRoleNameTaken
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Role{}, err
	}
	role, err := s.repo.CreateRole(ctx, name, strings.TrimSpace(description), false)
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "create_role", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// UpdateRole updates name/description of a non-system role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string, actorID int64) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, ErrRoleNameRequired
	}
	current, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return Role{}, err
	}
	if current.IsSystem {
		return Role{}, fmt.Errorf("%w (role %q)", ErrSystemRoleImmutable, current.Name)
	}
	if name != current.Name {
		if _, err := s.repo.GetRoleByName(ctx, name); err == nil {
			return Role{}, ErrRoleNameTaken
		} else if !errors.Is(err, shared.ErrNotFound) {
			return Role{}, err
		}
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.record(ctx, actorID, "update_role", role.ID, map[string]any{"name": role.Name})
	return role, nil
}

// DeleteRole removes a non-system role that no user currently holds.
func (s *Service) DeleteRole(ctx context.Context, id int64, actorID int64) error {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w (role %q)", ErrSystemRoleImmutable, role.Name)
	}
	holders, err := s.repo.CountApprovedAssignments(ctx, id)
	if err != nil {
		return err
	}
	if holders > 0 {
		return shared.Conflict("role_in_use", "cannot delete role: %d users currently hold it", holders)
	}
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	s.record(ctx, actorID, "delete_role", id, map[string]any{"name": role.Name})
	return nil
}

// ListPermissions returns the full catalog ordered by resource then action.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// CreatePermission inserts a new capability token.
func (s *Service) CreatePermission(ctx context.Context, resource, action, description string, actorID int64) (Permission, error) {
	resource = strings.ToLower(strings.TrimSpace(resource))
	action = strings.ToLower(strings.TrimSpace(action))
	if resource == "" || action == "" {
		return Permission{}, ErrPermissionFields
	}
	if _, err := s.repo.FindPermission(ctx, resource, action); err == nil {
		return Permission{}, ErrPermissionExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Permission{}, err
	}
	perm, err := s.repo.CreatePermission(ctx, Permission{
		Resource:    resource,
		Action:      action,
		Description: strings.TrimSpace(description),
	})
	if err != nil {
		return Permission{}, err
	}
	s.record(ctx, actorID, "create_permission", perm.ID, map[string]any{"permission": perm.Name()})
	return perm, nil
}

// DeletePermission removes a permission that no role references.
func (s *Service) DeletePermission(ctx context.Context, id int64, actorID int64) error {
	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountPermissionRefs(ctx, id)
	if err != nil {
		return err
	}
	if refs > 0 {
		return shared.Conflict("permission_in_use", "cannot delete permission %s: %d roles still reference it", perm.Name(), refs)
	}
	rows, err := s.repo.DeletePermission(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	s.record(ctx, actorID, "delete_permission", id, map[string]any{"permission": perm.Name()})
	return nil
}

// SetRolePermissions replaces the permission set of a non-system role,
// attaching missing entries and detaching removed ones.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64, actorID int64) error {
	role, err := s.repo.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return fmt.Errorf("%w (role %q)", ErrSystemRoleImmutable, role.Name)
	}
	current, err := s.repo.ListRolePermissions(ctx, roleID)
	if err != nil {
		return err
	}
	existing := make(map[int64]struct{}, len(current))
	for _, p := range current {
		existing[p.ID] = struct{}{}
	}
	keep := make(map[int64]struct{}, len(permissionIDs))
	for _, id := range permissionIDs {
		keep[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			if err := s.repo.AttachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	for id := range existing {
		if _, ok := keep[id]; !ok {
			if err := s.repo.DetachPermission(ctx, roleID, id); err != nil {
				return err
			}
		}
	}
	s.record(ctx, actorID, "set_role_permissions", roleID, map[string]any{"role": role.Name, "count": len(permissionIDs)})
	return nil
}

// RequestRole files a pending assignment for the user.
func (s *Service) RequestRole(ctx context.Context, userID, roleID int64) (Assignment, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return Assignment{}, err
	}
	assignment, err := s.repo.CreateAssignment(ctx, userID, roleID, StatusPending)
	if err != nil {
		return Assignment{}, err
	}
	s.record(ctx, userID, "request_role", assignment.ID, map[string]any{"role_id": roleID})
	return assignment, nil
}

// ReviewAssignment approves or rejects a pending assignment. Only approved
// assignments contribute permissions to the user from the next resolve on.
func (s *Service) ReviewAssignment(ctx context.Context, assignmentID int64, approve bool, actorID int64) (Assignment, error) {
	current, err := s.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return Assignment{}, err
	}
	if current.Status != StatusPending {
		return Assignment{}, fmt.Errorf("%w (status %s)", ErrAssignmentReviewed, current.Status)
	}
	status := StatusRejected
	action := "reject_role"
	if approve {
		status = StatusApproved
		action = "approve_role"
	}
	assignment, err := s.repo.UpdateAssignmentStatus(ctx, assignmentID, status)
	if err != nil {
		return Assignment{}, err
	}
	s.record(ctx, actorID, action, assignment.ID, map[string]any{
		"user_id": assignment.UserID,
		"role":    assignment.RoleName,
	})
	return assignment, nil
}

// RemoveRole deletes a user's assignment regardless of status.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID, actorID int64) error {
	rows, err := s.repo.DeleteAssignment(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	s.record(ctx, actorID, "remove_role", userID, map[string]any{"role_id": roleID})
	return nil
}

// ListAssignments returns assignments in the given status, or all of them
// when status is empty.
func (s *Service) ListAssignments(ctx context.Context, status AssignmentStatus) ([]Assignment, error) {
	return s.repo.ListAssignments(ctx, status)
}

// RolePermissions lists the permissions currently attached to a role.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	if _, err := s.repo.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return s.repo.ListRolePermissions(ctx, roleID)
}

// EffectivePermissions returns deduplicated permission names across the
// user's approved role assignments, computed at read time.
func (s *Service) EffectivePermissions(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.UserEffectivePermissions(ctx, userID)
}

// EnsureSystemCatalog seeds the permission catalog and system roles.
// Safe to run on every startup.
func (s *Service) EnsureSystemCatalog(ctx context.Context) error {
	permIDs := make(map[string]int64, len(catalogSeed))
	for _, seed := range catalogSeed {
		perm, err := s.repo.UpsertPermission(ctx, seed)
		if err != nil {
			return fmt.Errorf("rbac: seed permission %s: %w", seed.Name(), err)
		}
		permIDs[perm.Name()] = perm.ID
	}
	for name, grant := range systemRoleSeed {
		role, err := s.repo.GetRoleByName(ctx, name)
		if errors.Is(err, shared.ErrNotFound) {
			role, err = s.repo.CreateRole(ctx, name, grant.description, true)
		}
		if err != nil {
			return fmt.Errorf("rbac: seed role %s: %w", name, err)
		}
		attached, err := s.repo.ListRolePermissions(ctx, role.ID)
		if err != nil {
			return err
		}
		have := make(map[string]struct{}, len(attached))
		for _, p := range attached {
			have[p.Name()] = struct{}{}
		}
		for _, permName := range grant.permissions {
			if _, ok := have[permName]; ok {
				continue
			}
			id, ok := permIDs[permName]
			if !ok {
				return fmt.Errorf("rbac: role %s references unknown permission %s", name, permName)
			}
			if err := s.repo.AttachPermission(ctx, role.ID, id); err != nil {
				return err
			}
		}
	}
	if s.logger != nil {
		s.logger.Info("system role catalog ensured",
			slog.Int("permissions", len(catalogSeed)),
			slog.Int("roles", len(systemRoleSeed)))
	}
	return nil
}

func (s *Service) record(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	entity := shared.EntityRole
	if strings.HasSuffix(action, "_permission") {
		entity = shared.EntityPermission
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("rbac audit record", slog.Any("error", err))
	}
}
