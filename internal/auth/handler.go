package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lokapasar/lokapasar/internal/platform/httpx"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountSessionRoutes registers routes that require a resolved principal.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token     string            `json:"token"`
	Principal principalResponse `json:"principal"`
}

type principalResponse struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	IsVerified  bool     `json:"is_verified"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "request body is not valid JSON", "malformed_body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.ProblemCode(w, http.StatusUnprocessableEntity, "Unprocessable Entity", "email and password are required", "validation_failed")
		return
	}

	principal, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidLogin) {
			httpx.RespondError(w, err)
			return
		}
		httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password", "invalid_login")
		return
	}

	sess, err := h.service.IssueSession(r.Context(), principal.ID, r.RemoteAddr, r.UserAgent())
	if err != nil {
		h.logger.Error("issue session", slog.Any("error", err), slog.Int64("user_id", principal.ID))
		httpx.RespondError(w, err)
		return
	}

	h.service.sessions.WriteCookie(w, sess)
	httpx.JSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		Principal: toPrincipalResponse(principal),
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.service.sessions.TokenFromRequest(r)
	if token != "" {
		if err := h.service.RevokeSession(r.Context(), token); err != nil {
			h.logger.Error("revoke session", slog.Any("error", err))
		}
	}
	h.service.sessions.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	principal := PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.ProblemCode(w, http.StatusUnauthorized, "Unauthorized", "credential could not be resolved", "invalid_credential")
		return
	}
	httpx.JSON(w, http.StatusOK, toPrincipalResponse(principal))
}

func toPrincipalResponse(p *Principal) principalResponse {
	return principalResponse{
		ID:          p.ID,
		Email:       p.Email,
		Username:    p.Username,
		IsVerified:  p.IsVerified,
		Roles:       p.RoleNames(),
		Permissions: p.PermissionNames(),
	}
}
