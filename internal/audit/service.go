package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
	exportBatchSize = 500
)

// Service coordinates audit timeline reads.
type Service struct {
	repo Repository
}

// NewService builds a new audit timeline service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Timeline fetches one page of the audit trail, newest first. One extra row
// is fetched to decide whether a next page exists.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters) (Result, error) {
	if s.repo == nil {
		return Result{}, fmt.Errorf("audit: repository not configured")
	}
	pageSize := filters.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	page := filters.Page
	if page <= 0 {
		page = 1
	}

	rows, err := s.repo.TimelineWindow(ctx, QueryParams{
		From:     filters.From,
		To:       filters.To,
		ActorID:  filters.ActorID,
		Entity:   filters.Entity,
		EntityID: filters.EntityID,
		Action:   filters.Action,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize + 1,
	})
	if err != nil {
		return Result{}, err
	}

	hasNext := len(rows) > pageSize
	if hasNext {
		rows = rows[:pageSize]
	}
	paging := PagingInfo{Page: page, PageSize: pageSize, HasNext: hasNext}
	if page > 1 {
		paging.PrevPage = page - 1
	}
	if hasNext {
		paging.NextPage = page + 1
	}
	return Result{Rows: rows, Paging: paging}, nil
}

// ExportCSV streams the filtered timeline as CSV, batching reads so large
// trails never sit in memory at once.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, filters TimelineFilters) error {
	if s.repo == nil {
		return fmt.Errorf("audit: repository not configured")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"occurred_at", "actor_id", "action", "entity", "entity_id", "meta"}); err != nil {
		return err
	}
	offset := 0
	for {
		rows, err := s.repo.TimelineWindow(ctx, QueryParams{
			From:     filters.From,
			To:       filters.To,
			ActorID:  filters.ActorID,
			Entity:   filters.Entity,
			EntityID: filters.EntityID,
			Action:   filters.Action,
			Offset:   offset,
			Limit:    exportBatchSize,
		})
		if err != nil {
			return err
		}
		for _, row := range rows {
			meta := ""
			if row.Meta != nil {
				raw, err := json.Marshal(row.Meta)
				if err != nil {
					return err
				}
				meta = string(raw)
			}
			record := []string{
				row.At.UTC().Format(time.RFC3339),
				strconv.FormatInt(row.ActorID, 10),
				row.Action,
				row.Entity,
				row.EntityID,
				meta,
			}
			if err := writer.Write(record); err != nil {
				return err
			}
		}
		if len(rows) < exportBatchSize {
			break
		}
		offset += exportBatchSize
	}
	writer.Flush()
	return writer.Error()
}
