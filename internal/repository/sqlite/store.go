package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

// Store is the embedded SQLite backend built on gorm.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// Open opens (or creates) the SQLite database at path and migrates the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "dairysense.db"
	}

	gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return New(gdb, logger)
}

// OpenMemory opens a named, shared in-memory database. Each distinct name is
// an isolated database that lives as long as the store.
func OpenMemory(name string, logger *zap.Logger) (*Store, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	return Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), logger)
}

// New wraps an existing gorm handle and migrates the schema.
func New(gdb *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	// SQLite allows a single writer at a time.
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(
		&laneLogRecord{},
		&cowRecord{},
		&cowMetricRecord{},
		&cowStatusRecord{},
		&farmSummaryRecord{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite schema: %w", err)
	}

	logger.Debug("sqlite schema ready")
	return &Store{db: gdb, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func applyLaneLogFilter(q *gorm.DB, f repository.LaneLogFilter) *gorm.DB {
	if f.CowID != "" {
		q = q.Where("cow_id = ?", f.CowID)
	}
	if f.LaneNo > 0 {
		q = q.Where("lane_no = ?", f.LaneNo)
	}
	if !f.From.IsZero() {
		q = q.Where("date >= ?", models.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		q = q.Where("date <= ?", models.FormatDate(f.To))
	}
	return q
}

// UpsertLaneLog writes the row on its natural key and returns the stored version.
func (s *Store) UpsertLaneLog(ctx context.Context, entry models.LaneLogEntry) (models.LaneLogEntry, error) {
	record := newLaneLogRecord(entry)

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "lane_no"}, {Name: "cow_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cow_type", "feed_given_kg", "morning_yield_l", "evening_yield_l", "total_yield_l", "updated_at",
		}),
	}).Create(&record).Error
	if err != nil {
		return models.LaneLogEntry{}, fmt.Errorf("upsert lane log: %w", err)
	}

	return s.FindLaneLog(ctx, entry.Date, entry.LaneNo, entry.CowID)
}

// FindLaneLog loads one row by natural key.
func (s *Store) FindLaneLog(ctx context.Context, date time.Time, laneNo int, cowID string) (models.LaneLogEntry, error) {
	var record laneLogRecord
	err := s.db.WithContext(ctx).
		Where("date = ? AND lane_no = ? AND cow_id = ?", models.FormatDate(date), laneNo, cowID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.LaneLogEntry{}, repository.ErrNotFound
		}
		return models.LaneLogEntry{}, fmt.Errorf("find lane log: %w", err)
	}
	return record.toModel(), nil
}

// ListLaneLogs returns matching rows ordered by date, lane and cow.
func (s *Store) ListLaneLogs(ctx context.Context, filter repository.LaneLogFilter) ([]models.LaneLogEntry, error) {
	var records []laneLogRecord
	q := applyLaneLogFilter(s.db.WithContext(ctx).Model(&laneLogRecord{}), filter)
	if err := q.Order("date ASC, lane_no ASC, cow_id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list lane logs: %w", err)
	}

	entries := make([]models.LaneLogEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.toModel())
	}
	return entries, nil
}

// DeleteLaneLogs removes matching rows. An empty filter is refused.
func (s *Store) DeleteLaneLogs(ctx context.Context, filter repository.LaneLogFilter) (int64, error) {
	if filter == (repository.LaneLogFilter{}) {
		return 0, fmt.Errorf("delete lane logs: empty filter")
	}
	res := applyLaneLogFilter(s.db.WithContext(ctx), filter).Delete(&laneLogRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete lane logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type dayTotalRow struct {
	Date     string
	CowID    string
	Feed     sql.NullFloat64
	Milk     sql.NullFloat64
	LastLane int
}

// AggregateDaily sums feed and milk per (date, cow).
func (s *Store) AggregateDaily(ctx context.Context, filter repository.LaneLogFilter) ([]repository.DayTotal, error) {
	var rows []dayTotalRow
	q := s.db.WithContext(ctx).Model(&laneLogRecord{}).
		Select("date, cow_id, SUM(feed_given_kg) AS feed, SUM(total_yield_l) AS milk, MAX(lane_no) AS last_lane")
	q = applyLaneLogFilter(q, filter)
	if err := q.Group("date, cow_id").Order("date ASC, cow_id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate lane logs: %w", err)
	}

	totals := make([]repository.DayTotal, 0, len(rows))
	for _, r := range rows {
		date, err := models.ParseDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("aggregate lane logs: %w", err)
		}
		totals = append(totals, repository.DayTotal{
			Date:     date,
			CowID:    r.CowID,
			Feed:     r.Feed.Float64,
			Milk:     r.Milk.Float64,
			HasFeed:  r.Feed.Valid,
			HasMilk:  r.Milk.Valid,
			LastLane: r.LastLane,
		})
	}
	return totals, nil
}

// GetCow loads a cow by id.
func (s *Store) GetCow(ctx context.Context, cowID string) (models.Cow, error) {
	var record cowRecord
	if err := s.db.WithContext(ctx).Where("cow_id = ?", cowID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Cow{}, repository.ErrNotFound
		}
		return models.Cow{}, fmt.Errorf("get cow: %w", err)
	}
	return record.toModel(), nil
}

// ListActiveCows returns active cows ordered by id.
func (s *Store) ListActiveCows(ctx context.Context) ([]models.Cow, error) {
	var records []cowRecord
	err := s.db.WithContext(ctx).
		Where("status = ?", models.CowStatusActive).
		Order("cow_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list active cows: %w", err)
	}

	cows := make([]models.Cow, 0, len(records))
	for _, r := range records {
		cows = append(cows, r.toModel())
	}
	return cows, nil
}

// UpsertCow inserts or replaces a cow keyed by cow id.
func (s *Store) UpsertCow(ctx context.Context, cow models.Cow) error {
	record := cowRecord{
		CowID:   cow.CowID,
		RFIDUID: models.String(cow.RFIDUID),
		Name:    cow.Name,
		CowType: string(cow.CowType),
		Status:  cow.Status,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cow_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rfid_uid", "name", "cow_type", "status", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert cow: %w", err)
	}
	return nil
}

// DeleteCow removes a cow from the master table.
func (s *Store) DeleteCow(ctx context.Context, cowID string) error {
	if err := s.db.WithContext(ctx).Where("cow_id = ?", cowID).Delete(&cowRecord{}).Error; err != nil {
		return fmt.Errorf("delete cow: %w", err)
	}
	return nil
}

// UpsertCowMetric writes the per-cow daily rollup.
func (s *Store) UpsertCowMetric(ctx context.Context, metric models.DailyCowMetric) error {
	record := cowMetricRecord{
		CowID:       metric.CowID,
		Date:        models.FormatDate(metric.Date),
		FeedGivenKg: metric.FeedGivenKg,
		MilkYieldL:  metric.MilkYieldL,
		LaneID:      metric.LaneID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cow_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"feed_given_kg", "milk_yield_litre", "lane_id"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert cow metric: %w", err)
	}
	return nil
}

// GetCowMetric loads the rollup of one cow on one day.
func (s *Store) GetCowMetric(ctx context.Context, cowID string, date time.Time) (models.DailyCowMetric, error) {
	var record cowMetricRecord
	err := s.db.WithContext(ctx).
		Where("cow_id = ? AND date = ?", cowID, models.FormatDate(date)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DailyCowMetric{}, repository.ErrNotFound
		}
		return models.DailyCowMetric{}, fmt.Errorf("get cow metric: %w", err)
	}
	return record.toModel(), nil
}

// ListCowMetrics returns every rollup of a day ordered by cow.
func (s *Store) ListCowMetrics(ctx context.Context, date time.Time) ([]models.DailyCowMetric, error) {
	var records []cowMetricRecord
	err := s.db.WithContext(ctx).
		Where("date = ?", models.FormatDate(date)).
		Order("cow_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cow metrics: %w", err)
	}

	metrics := make([]models.DailyCowMetric, 0, len(records))
	for _, r := range records {
		metrics = append(metrics, r.toModel())
	}
	return metrics, nil
}

// UpsertCowStatus writes the status of a cow for a day. A zero UpdatedAt is
// filled with the current time.
func (s *Store) UpsertCowStatus(ctx context.Context, status models.CowDailyStatus) error {
	record := cowStatusRecord{
		CowID:     status.CowID,
		Date:      models.FormatDate(status.Date),
		Status:    string(status.Status),
		Reason:    status.Reason,
		UpdatedAt: status.UpdatedAt,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cow_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "reason", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert cow status: %w", err)
	}
	return nil
}

// GetCowStatus loads the status of one cow on one day.
func (s *Store) GetCowStatus(ctx context.Context, cowID string, date time.Time) (models.CowDailyStatus, error) {
	var record cowStatusRecord
	err := s.db.WithContext(ctx).
		Where("cow_id = ? AND date = ?", cowID, models.FormatDate(date)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.CowDailyStatus{}, repository.ErrNotFound
		}
		return models.CowDailyStatus{}, fmt.Errorf("get cow status: %w", err)
	}
	return record.toModel(), nil
}

// ListCowStatuses returns every status row of a day ordered by cow.
func (s *Store) ListCowStatuses(ctx context.Context, date time.Time) ([]models.CowDailyStatus, error) {
	var records []cowStatusRecord
	err := s.db.WithContext(ctx).
		Where("date = ?", models.FormatDate(date)).
		Order("cow_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cow statuses: %w", err)
	}

	statuses := make([]models.CowDailyStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.toModel())
	}
	return statuses, nil
}

// CountStatuses counts distinct cows holding the given status on a day.
func (s *Store) CountStatuses(ctx context.Context, date time.Time, status models.StatusCode) (int, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&cowStatusRecord{}).
		Where("date = ? AND status = ?", models.FormatDate(date), string(status)).
		Distinct("cow_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return int(count), nil
}

// UpsertFarmSummary writes the farm rollup of a day.
func (s *Store) UpsertFarmSummary(ctx context.Context, summary models.DailyFarmSummary) error {
	record := farmSummaryRecord{
		Date:        models.FormatDate(summary.Date),
		TotalFeedKg: summary.TotalFeedKg,
		TotalMilkL:  summary.TotalMilkL,
		BestCowID:   summary.BestCowID,
		LowestCowID: summary.LowestCowID,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"total_feed_kg", "total_milk_litre", "best_cow_id", "lowest_cow_id"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("upsert farm summary: %w", err)
	}
	return nil
}

// GetFarmSummary loads the farm rollup of a day.
func (s *Store) GetFarmSummary(ctx context.Context, date time.Time) (models.DailyFarmSummary, error) {
	var record farmSummaryRecord
	if err := s.db.WithContext(ctx).Where("date = ?", models.FormatDate(date)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.DailyFarmSummary{}, repository.ErrNotFound
		}
		return models.DailyFarmSummary{}, fmt.Errorf("get farm summary: %w", err)
	}
	return record.toModel(), nil
}

// DeleteCowDerived drops the cached metrics and statuses of a cow.
func (s *Store) DeleteCowDerived(ctx context.Context, cowID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cow_id = ?", cowID).Delete(&cowMetricRecord{}).Error; err != nil {
			return fmt.Errorf("delete cow metrics: %w", err)
		}
		if err := tx.Where("cow_id = ?", cowID).Delete(&cowStatusRecord{}).Error; err != nil {
			return fmt.Errorf("delete cow statuses: %w", err)
		}
		return nil
	})
}
