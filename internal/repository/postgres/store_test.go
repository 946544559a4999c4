package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/dairysense/internal/repository"
)

func TestWhereClause(t *testing.T) {
	from := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter repository.LaneLogFilter
		where  string
		args   []any
	}{
		{
			name:   "empty",
			filter: repository.LaneLogFilter{},
			where:  "",
			args:   nil,
		},
		{
			name:   "cow only",
			filter: repository.LaneLogFilter{CowID: "COW001"},
			where:  " WHERE cow_id = $1",
			args:   []any{"COW001"},
		},
		{
			name:   "full",
			filter: repository.LaneLogFilter{CowID: "COW001", LaneNo: 3, From: from, To: to},
			where:  " WHERE cow_id = $1 AND lane_no = $2 AND date >= $3::date AND date <= $4::date",
			args:   []any{"COW001", 3, "2024-01-04", "2024-01-10"},
		},
		{
			name:   "single day",
			filter: repository.ForDay(to),
			where:  " WHERE date >= $1::date AND date <= $2::date",
			args:   []any{"2024-01-10", "2024-01-10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := whereClause(tt.filter)
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSchemaDeclaresUniqueKeys(t *testing.T) {
	assert.Contains(t, schema, "UNIQUE (date, lane_no, cow_id)")
	assert.Contains(t, schema, "UNIQUE (cow_id, date)")
	assert.Contains(t, schema, "CHECK (status IN ('NORMAL', 'SLIGHT_DROP', 'ATTENTION'))")
}
