package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

// ErrNotFound is returned by every backend when a keyed lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// LaneLogFilter narrows lane-log queries. Zero values mean "no constraint";
// From and To are inclusive calendar days.
type LaneLogFilter struct {
	CowID  string
	LaneNo int
	From   time.Time
	To     time.Time
}

// ForDay returns a filter matching a single calendar day.
func ForDay(date time.Time) LaneLogFilter {
	d := models.DateOf(date)
	return LaneLogFilter{From: d, To: d}
}

// DayTotal is the lane-log rollup of one cow on one day.
type DayTotal struct {
	Date     time.Time
	CowID    string
	Feed     float64
	Milk     float64
	HasFeed  bool
	HasMilk  bool
	LastLane int
}

// LaneLogStore persists raw lane-log rows.
type LaneLogStore interface {
	// UpsertLaneLog writes the full row on its (date, lane, cow) key.
	UpsertLaneLog(ctx context.Context, entry models.LaneLogEntry) (models.LaneLogEntry, error)
	FindLaneLog(ctx context.Context, date time.Time, laneNo int, cowID string) (models.LaneLogEntry, error)
	// ListLaneLogs returns rows ordered by date, lane and cow.
	ListLaneLogs(ctx context.Context, filter LaneLogFilter) ([]models.LaneLogEntry, error)
	DeleteLaneLogs(ctx context.Context, filter LaneLogFilter) (int64, error)
	// AggregateDaily groups matching rows per (date, cow), ordered by date then cow.
	AggregateDaily(ctx context.Context, filter LaneLogFilter) ([]DayTotal, error)
}

// CowStore reads cow master data.
type CowStore interface {
	GetCow(ctx context.Context, cowID string) (models.Cow, error)
	ListActiveCows(ctx context.Context) ([]models.Cow, error)
	UpsertCow(ctx context.Context, cow models.Cow) error
	DeleteCow(ctx context.Context, cowID string) error
}

// DerivedStore persists the monitoring caches recomputed from the lane log.
type DerivedStore interface {
	UpsertCowMetric(ctx context.Context, metric models.DailyCowMetric) error
	GetCowMetric(ctx context.Context, cowID string, date time.Time) (models.DailyCowMetric, error)
	ListCowMetrics(ctx context.Context, date time.Time) ([]models.DailyCowMetric, error)

	UpsertCowStatus(ctx context.Context, status models.CowDailyStatus) error
	GetCowStatus(ctx context.Context, cowID string, date time.Time) (models.CowDailyStatus, error)
	ListCowStatuses(ctx context.Context, date time.Time) ([]models.CowDailyStatus, error)
	CountStatuses(ctx context.Context, date time.Time, status models.StatusCode) (int, error)

	UpsertFarmSummary(ctx context.Context, summary models.DailyFarmSummary) error
	GetFarmSummary(ctx context.Context, date time.Time) (models.DailyFarmSummary, error)

	// DeleteCowDerived drops every metric and status row of a cow.
	DeleteCowDerived(ctx context.Context, cowID string) error
}

// Store is the full persistence surface of the service.
type Store interface {
	LaneLogStore
	CowStore
	DerivedStore
	Close(ctx context.Context) error
}
