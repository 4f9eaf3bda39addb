package shops

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name      string
		filter    ListFilter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "empty",
			filter:    ListFilter{},
			wantWhere: "",
			wantArgs:  nil,
		},
		{
			name:      "name query",
			filter:    ListFilter{Query: "warung"},
			wantWhere: " WHERE s.name ILIKE $1",
			wantArgs:  []any{"%warung%"},
		},
		{
			name:      "owner scope",
			filter:    ListFilter{OwnerID: 7},
			wantWhere: " WHERE s.owner_id = $1",
			wantArgs:  []any{int64(7)},
		},
		{
			name:      "query then owner keeps placeholder order",
			filter:    ListFilter{Query: "batik", OwnerID: 7, Status: StatusBlocked},
			wantWhere: " WHERE s.name ILIKE $1 AND s.owner_id = $2 AND s.is_blocked = TRUE",
			wantArgs:  []any{"%batik%", int64(7)},
		},
		{
			name:      "active excludes blocked and deleted",
			filter:    ListFilter{Status: StatusActive},
			wantWhere: " WHERE s.is_blocked = FALSE AND s.deleted_at IS NULL",
			wantArgs:  nil,
		},
		{
			name:      "deleted",
			filter:    ListFilter{Status: StatusDeleted},
			wantWhere: " WHERE s.deleted_at IS NOT NULL",
			wantArgs:  nil,
		},
		{
			name:      "pending verification queue",
			filter:    ListFilter{Verification: "pending", Status: StatusActive},
			wantWhere: " WHERE s.verification_status = $1 AND s.is_blocked = FALSE AND s.deleted_at IS NULL",
			wantArgs:  []any{"pending"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildFilter(tt.filter)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}
