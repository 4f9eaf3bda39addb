package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lokapasar/lokapasar/internal/platform/httpx"
)

// Handler serves the audit timeline to administrators.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers audit routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.timeline)
	r.Get("/export", h.export)
}

type entryResponse struct {
	ID       int64          `json:"id"`
	ActorID  int64          `json:"actor_id"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID string         `json:"entity_id"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"occurred_at"`
}

func (h *Handler) timeline(w http.ResponseWriter, r *http.Request) {
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	result, err := h.service.Timeline(r.Context(), filters)
	if err != nil {
		h.logger.Error("audit timeline", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(result.Rows))
	for _, row := range result.Rows {
		out = append(out, entryResponse{
			ID:       row.ID,
			ActorID:  row.ActorID,
			Action:   row.Action,
			Entity:   row.Entity,
			EntityID: row.EntityID,
			Meta:     row.Meta,
			At:       row.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"entries": out,
		"paging": map[string]any{
			"page":      result.Paging.Page,
			"page_size": result.Paging.PageSize,
			"has_next":  result.Paging.HasNext,
		},
	})
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	filters, ok := parseFilters(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="audit-trail.csv"`)
	if err := h.service.ExportCSV(r.Context(), w, filters); err != nil {
		// headers are gone already, only log
		h.logger.Error("audit export", slog.Any("error", err))
	}
}

func parseFilters(w http.ResponseWriter, r *http.Request) (TimelineFilters, bool) {
	q := r.URL.Query()
	filters := TimelineFilters{
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		Action:   q.Get("action"),
	}
	filters.ActorID, _ = strconv.ParseInt(q.Get("actor_id"), 10, 64)
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	for name, target := range map[string]*time.Time{"from": &filters.From, "to": &filters.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			httpx.ProblemCode(w, http.StatusBadRequest, "Bad Request", name+" must be RFC3339", "invalid_time")
			return TimelineFilters{}, false
		}
		*target = parsed
	}
	return filters, true
}
