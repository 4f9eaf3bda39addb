package audit

import "time"

// Entry is one row of the audit timeline.
type Entry struct {
	ID       int64
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// TimelineFilters narrows the timeline query. Zero values mean "any".
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	EntityID string
	Action   string
	Page     int
	PageSize int
}

// PagingInfo carries cursorless paging metadata.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// Result bundles timeline rows with paging.
type Result struct {
	Rows   []Entry
	Paging PagingInfo
}
