package shops

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/lokapasar/internal/platform/httpx"
	"github.com/lokapasar/lokapasar/internal/shared"
)

// Handler serves the admin shop listing.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers shop read routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listShops)
	r.Get("/{shopID}", h.getShop)
	r.Get("/{shopID}/dependents", h.getDependents)
}

type shopResponse struct {
	ID              int64      `json:"id"`
	OwnerID         int64      `json:"owner_id"`
	OwnerUsername   string     `json:"owner_username"`
	Name            string     `json:"name"`
	IsBlocked       bool       `json:"is_blocked"`
	BlockedReason   string     `json:"blocked_reason,omitempty"`
	StrikeCount     int        `json:"strike_count"`
	Verification    string     `json:"verification_status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toShopResponse(s AdminShop) shopResponse {
	return shopResponse{
		ID:              s.ID,
		OwnerID:         s.OwnerID,
		OwnerUsername:   s.OwnerUsername,
		Name:            s.Name,
		IsBlocked:       s.IsBlocked,
		BlockedReason:   s.BlockedReason,
		StrikeCount:     s.StrikeCount,
		Verification:    s.Verification,
		RejectionReason: s.RejectionReason,
		DeletedAt:       s.DeletedAt,
		CreatedAt:       s.CreatedAt,
	}
}

func (h *Handler) listShops(w http.ResponseWriter, r *http.Request) {
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
	switch v := r.URL.Query().Get("verification"); v {
	case "", "pending", "verified", "rejected":
		filter.Verification = v
	default:
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "unknown verification filter", "invalid_verification")
		return
	}
	filter.OwnerID, _ = strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))

	list, total, err := h.service.ListShops(r.Context(), filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]shopResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toShopResponse(s))
	}
	pag := shared.NewPagination(filter.Page, filter.PerPage, total)
	httpx.JSON(w, http.StatusOK, map[string]any{
		"shops": out,
		"pagination": map[string]int{
			"page":        pag.Page,
			"per_page":    pag.PerPage,
			"total":       pag.Total,
			"total_pages": pag.TotalPages,
		},
	})
}

func (h *Handler) getShop(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
	if err != nil || id <= 0 {
		httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", "path id must be a positive integer", "invalid_id")
		return
	}
	shop, err := h.service.GetShop(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toShopResponse(shop))
}

func (h *Handler) getDependents(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "shopID"), 10, 64)
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
		"products": counts.Products,
		"services": counts.Services,
		"posts":    counts.Posts,
	})
}
