package users

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/lokapasar/internal/platform/httpx"
	"github.com/lokapasar/lokapasar/internal/shared"
)

// Handler serves the admin user listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers user read routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listUsers)
	r.Get("/{userID}", h.getUser)
	r.Get("/{userID}/dependents", h.getDependents)
}

type userResponse struct {
	ID            int64      `json:"id"`
	Email         string     `json:"email"`
	Username      string     `json:"username"`
	IsActive      bool       `json:"is_active"`
	IsVerified    bool       `json:"is_verified"`
	IsBlocked     bool       `json:"is_blocked"`
	BlockedReason string     `json:"blocked_reason,omitempty"`
	WarningCount  int        `json:"warning_count"`
	Roles         []string   `json:"roles,omitempty"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toUserResponse(u AdminUser) userResponse {
	return userResponse{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		IsActive:      u.IsActive,
		IsVerified:    u.IsVerified,
		IsBlocked:     u.IsBlocked,
		BlockedReason: u.BlockedReason,
		WarningCount:  u.WarningCount,
		Roles:         u.Roles,
		DeletedAt:     u.DeletedAt,
		CreatedAt:     u.CreatedAt,
	}
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Query:  r.URL.Query().Get("q"),
		Status: StatusFilter(r.URL.Query().Get("status")),
	}
	switch filter.Status {
	case StatusAny, StatusActive, StatusBlocked, StatusDeleted:
	default:
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "unknown status filter", "invalid_status")
		return
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	list, total, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]userResponse, 0, len(list))
	for _, u := range list {
		out = append(out, toUserResponse(u))
	}
	pag := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"users": out,
		"pagination": map[string]int{
			"page":        pag.Page,
			"per_page":    pag.PerPage,
			"total":       pag.Total,
			"total_pages": pag.TotalPages,
		},
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "path id must be a positive integer", "invalid_id")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

func (h *Handler) getDependents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "path id must be a positive integer", "invalid_id")
		return
	}
	counts, err := h.service.DependentCounts(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]int{
		"shops":    counts.Shops,
		"products": counts.Products,
		"services": counts.Services,
		"posts":    counts.Posts,
		"comments": counts.Comments,
	})
}
