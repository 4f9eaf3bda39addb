package rbac

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/platform/httpx"
)

// Handler exposes role and permission administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoleRoutes registers role administration routes.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Get("/{roleID}", h.getRole)
	r.Put("/{roleID}", h.updateRole)
	r.Delete("/{roleID}", h.deleteRole)
	r.Get("/{roleID}/permissions", h.listRolePermissions)
	r.Put("/{roleID}/permissions", h.setRolePermissions)
}

// MountPermissionRoutes registers permission catalog routes.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Post("/", h.createPermission)
	r.Delete("/{permissionID}", h.deletePermission)
}

// MountAssignmentRoutes registers assignment review routes.
func (h *Handler) MountAssignmentRoutes(r chi.Router) {
	r.Get("/", h.listAssignments)
	r.Post("/", h.requestRole)
	r.Post("/{assignmentID}/review", h.reviewAssignment)
	r.Delete("/", h.removeRole)
}

type roleResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsSystem    bool   `json:"is_system"`
}

type permissionResponse struct {
	ID          int64  `json:"id"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type assignmentResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	RoleID   int64  `json:"role_id"`
	RoleName string `json:"role_name"`
	Status   string `json:"status"`
}

func toRoleResponse(role Role) roleResponse {
	return roleResponse{ID: role.ID, Name: role.Name, Description: role.Description, IsSystem: role.IsSystem}
}

func toPermissionResponse(perm Permission) permissionResponse {
	return permissionResponse{ID: perm.ID, Resource: perm.Resource, Action: perm.Action, Name: perm.Name(), Description: perm.Description}
}

func toAssignmentResponse(a Assignment) assignmentResponse {
	return assignmentResponse{ID: a.ID, UserID: a.UserID, RoleID: a.RoleID, RoleName: a.RoleName, Status: string(a.Status)}
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]roleResponse, 0, len(roles))
	for _, role := range roles {
		out = append(out, toRoleResponse(role))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": out})
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.CreateRole(r.Context(), req.Name, req.Description, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toRoleResponse(role))
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	var req roleRequest
	if !h.decode(w, r, &req) {
		return
	}
	role, err := h.service.UpdateRole(r.Context(), id, req.Name, req.Description, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toRoleResponse(role))
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), id, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	perms, err := h.service.RolePermissions(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, toPermissionResponse(perm))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

type setPermissionsRequest struct {
	PermissionIDs []int64 `json:"permission_ids" validate:"required"`
}

func (h *Handler) setRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	var req setPermissionsRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.SetRolePermissions(r.Context(), id, req.PermissionIDs, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]permissionResponse, 0, len(perms))
	for _, perm := range perms {
		out = append(out, toPermissionResponse(perm))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": out})
}

type permissionRequest struct {
	Resource    string `json:"resource" validate:"required,min=2,max=64"`
	Action      string `json:"action" validate:"required,min=2,max=64"`
	Description string `json:"description" validate:"max=255"`
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if !h.decode(w, r, &req) {
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), req.Resource, req.Action, req.Description, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPermissionResponse(perm))
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), id, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	status := AssignmentStatus(r.URL.Query().Get("status"))
	switch status {
	case "", StatusPending, StatusApproved, StatusRejected:
	default:
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "unknown assignment status", "invalid_status")
		return
	}
	assignments, err := h.service.ListAssignments(r.Context(), status)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]assignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": out})
}

type requestRoleRequest struct {
	UserID int64 `json:"user_id" validate:"required,gt=0"`
	RoleID int64 `json:"role_id" validate:"required,gt=0"`
}

func (h *Handler) requestRole(w http.ResponseWriter, r *http.Request) {
	var req requestRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	assignment, err := h.service.RequestRole(r.Context(), req.UserID, req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toAssignmentResponse(assignment))
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

func (h *Handler) reviewAssignment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r, "assignmentID")
	if !ok {
		return
	}
	var req reviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", "malformed_body")
		return
	}
	assignment, err := h.service.ReviewAssignment(r.Context(), id, req.Approve, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toAssignmentResponse(assignment))
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	var req requestRoleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.service.RemoveRole(r.Context(), req.UserID, req.RoleID, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", "malformed_body")
		return false
	}
	if err := h.validator.Struct(target); err != nil {
		httpx.ProblemCode(w, http.StatusUnprocessableEntity, "Unprocessable Entity", err.Error(), "validation_failed")
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "path id must be a positive integer", "invalid_id")
		return 0, false
	}
	return id, true
}

func actorID(r *http.Request) int64 {
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		return p.ID
	}
	return 0
}
