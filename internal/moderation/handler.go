package moderation

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/lokapasar/lokapasar/internal/auth"
	"github.com/lokapasar/lokapasar/internal/observability"
	"github.com/lokapasar/lokapasar/internal/platform/httpx"
)

// Handler exposes moderation endpoints for users and shops.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics, validator: validator.New()}
}

// MountUserRoutes registers user moderation routes under /users/{userID}.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Route("/{userID}", func(r chi.Router) {
		r.Get("/warnings", h.listWarnings)
		r.Post("/warnings", h.warnUser)
		r.Post("/block", h.blockUser)
		r.Post("/unblock", h.unblockUser)
		r.Post("/verify", h.verifyUser)
		r.Delete("/", h.deleteUser)
		r.Post("/restore", h.restoreUser)
	})
}

// MountShopRoutes registers shop moderation routes under /shops/{shopID}.
func (h *Handler) MountShopRoutes(r chi.Router) {
	r.Route("/{shopID}", func(r chi.Router) {
		r.Get("/strikes", h.listStrikes)
		r.Post("/strikes", h.strikeShop)
		r.Post("/block", h.blockShop)
		r.Post("/unblock", h.unblockShop)
		r.Post("/verify", h.verifyShop)
		r.Post("/reject", h.rejectShop)
		r.Delete("/", h.deleteShop)
		r.Post("/restore", h.restoreShop)
	})
}

type warnRequest struct {
	Reason    string     `json:"reason" validate:"required,min=3,max=500"`
	Severity  string     `json:"severity" validate:"required,oneof=low medium high"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type strikeRequest struct {
	Reason    string     `json:"reason" validate:"required,min=3,max=500"`
	Severity  string     `json:"severity" validate:"required,oneof=warning minor major critical"`
	ExpiresAt *time.Time `json:"expires_at"`
}

type blockRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type warningResponse struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Reason    string     `json:"reason"`
	Severity  string     `json:"severity"`
	IssuedBy  int64      `json:"issued_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type strikeResponse struct {
	ID        int64      `json:"id"`
	ShopID    int64      `json:"shop_id"`
	Reason    string     `json:"reason"`
	Severity  string     `json:"severity"`
	IssuedBy  int64      `json:"issued_by"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type cascadeResponse struct {
	ShopsAffected      int   `json:"shops_affected"`
	DependentsAffected int64 `json:"dependents_affected"`
}

func (h *Handler) warnUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	var req warnRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.IssueWarning(r.Context(), userID, req.Reason, req.Severity, actorID(r), req.ExpiresAt)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("warn_user")
	resp := map[string]any{
		"warning":       toWarningResponse(result.Warning),
		"warning_count": result.WarningCount,
		"auto_blocked":  result.AutoBlocked,
	}
	if result.AutoBlocked {
		resp["message"] = strconv.Itoa(result.WarningCount) + " warnings reached, user blocked"
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) listWarnings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	warnings, err := h.service.Warnings(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]warningResponse, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, toWarningResponse(warning))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"warnings": out})
}

func (h *Handler) blockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	// reason is optional, an empty body means the default reason
	var req blockRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	if err := h.service.BlockUser(r.Context(), userID, req.Reason, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("block_user")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblockUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.UnblockUser(r.Context(), userID, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("unblock_user")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verifyUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	if err := h.service.VerifyUser(r.Context(), userID, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("verify_user")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	result, err := h.service.SoftDeleteUser(r.Context(), userID, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("delete_user")
	httpx.JSON(w, http.StatusOK, toCascadeResponse(result))
}

func (h *Handler) restoreUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	result, err := h.service.RestoreUser(r.Context(), userID, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("restore_user")
	httpx.JSON(w, http.StatusOK, toCascadeResponse(result))
}

func (h *Handler) strikeShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	var req strikeRequest
	if !h.decode(w, r, &req) {
		return
	}
	result, err := h.service.IssueStrike(r.Context(), shopID, req.Reason, req.Severity, actorID(r), req.ExpiresAt)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("strike_shop")
	resp := map[string]any{
		"strike":       toStrikeResponse(result.Strike),
		"strike_count": result.StrikeCount,
		"auto_blocked": result.AutoBlocked,
	}
	if result.AutoBlocked {
		resp["message"] = strconv.Itoa(result.StrikeCount) + " strikes reached"
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) listStrikes(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	strikes, err := h.service.Strikes(r.Context(), shopID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]strikeResponse, 0, len(strikes))
	for _, strike := range strikes {
		out = append(out, toStrikeResponse(strike))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"strikes": out})
}

func (h *Handler) blockShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	var req blockRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	if err := h.service.BlockShop(r.Context(), shopID, req.Reason, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("block_shop")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unblockShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	if err := h.service.UnblockShop(r.Context(), shopID, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("unblock_shop")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) verifyShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	if err := h.service.VerifyShop(r.Context(), shopID, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("verify_shop")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) rejectShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	// reason is optional, an empty body means the default reason
	var req blockRequest
	if r.ContentLength != 0 && !h.decode(w, r, &req) {
		return
	}
	if err := h.service.RejectShop(r.Context(), shopID, req.Reason, actorID(r)); err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("reject_shop")
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	result, err := h.service.SoftDeleteShop(r.Context(), shopID, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("delete_shop")
	httpx.JSON(w, http.StatusOK, toCascadeResponse(result))
}

func (h *Handler) restoreShop(w http.ResponseWriter, r *http.Request) {
	shopID, ok := h.pathID(w, r, "shopID")
	if !ok {
		return
	}
	result, err := h.service.RestoreShop(r.Context(), shopID, actorID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.CountModerationAction("restore_shop")
	httpx.JSON(w, http.StatusOK, toCascadeResponse(result))
}

func toWarningResponse(w Warning) warningResponse {
	return warningResponse{ID: w.ID, UserID: w.UserID, Reason: w.Reason, Severity: w.Severity, IssuedBy: w.IssuedBy, CreatedAt: w.CreatedAt, ExpiresAt: w.ExpiresAt}
}

func toStrikeResponse(s Strike) strikeResponse {
	return strikeResponse{ID: s.ID, ShopID: s.ShopID, Reason: s.Reason, Severity: s.Severity, IssuedBy: s.IssuedBy, CreatedAt: s.CreatedAt, ExpiresAt: s.ExpiresAt}
}

func toCascadeResponse(result CascadeResult) cascadeResponse {
	return cascadeResponse{ShopsAffected: result.ShopsAffected, DependentsAffected: result.DependentsAffected}
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
