package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

//go:embed schema.sql
var schema string

// Store is the PostgreSQL backend built on database/sql and lib/pq.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ repository.Store = (*Store)(nil)

// Connect opens the pool, checks connectivity and applies the schema.
func Connect(ctx context.Context, dsn string, maxOpenConns int, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = 25
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(5)

	s := &Store{db: db, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the tables and indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	s.logger.Info("postgres schema ready")
	return nil
}

// Close releases the pool.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

// whereClause renders the filter as a WHERE clause with positional arguments
// starting at $1.
func whereClause(f repository.LaneLogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.CowID != "" {
		add("cow_id = $%d", f.CowID)
	}
	if f.LaneNo > 0 {
		add("lane_no = $%d", f.LaneNo)
	}
	if !f.From.IsZero() {
		add("date >= $%d::date", models.FormatDate(f.From))
	}
	if !f.To.IsZero() {
		add("date <= $%d::date", models.FormatDate(f.To))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const laneLogColumns = `date, lane_no, cow_id, cow_type, feed_given_kg, morning_yield_l,
		       evening_yield_l, total_yield_l, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLaneLog(row rowScanner) (models.LaneLogEntry, error) {
	var (
		e                             models.LaneLogEntry
		cowType                       string
		feed, morning, evening, total sql.NullFloat64
	)
	err := row.Scan(&e.Date, &e.LaneNo, &e.CowID, &cowType, &feed, &morning, &evening, &total, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return models.LaneLogEntry{}, err
	}
	e.Date = models.DateOf(e.Date)
	e.CowType = models.CowType(cowType)
	e.FeedGivenKg = nullableFloat(feed)
	e.MorningYieldL = nullableFloat(morning)
	e.EveningYieldL = nullableFloat(evening)
	e.TotalYieldL = nullableFloat(total)
	return e, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return models.Float(v.Float64)
}

func nullableString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

// UpsertLaneLog inserts or updates a lane-log row on its natural key.
func (s *Store) UpsertLaneLog(ctx context.Context, entry models.LaneLogEntry) (models.LaneLogEntry, error) {
	query := `
		INSERT INTO daily_lane_log (
			date, lane_no, cow_id, cow_type, feed_given_kg,
			morning_yield_l, evening_yield_l, total_yield_l
		) VALUES ($1::date, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (date, lane_no, cow_id) DO UPDATE
		SET cow_type = EXCLUDED.cow_type,
		    feed_given_kg = EXCLUDED.feed_given_kg,
		    morning_yield_l = EXCLUDED.morning_yield_l,
		    evening_yield_l = EXCLUDED.evening_yield_l,
		    total_yield_l = EXCLUDED.total_yield_l,
		    updated_at = CURRENT_TIMESTAMP
		RETURNING ` + laneLogColumns

	row := s.db.QueryRowContext(ctx, query,
		models.FormatDate(entry.Date),
		entry.LaneNo,
		entry.CowID,
		string(entry.CowType),
		entry.FeedGivenKg,
		entry.MorningYieldL,
		entry.EveningYieldL,
		entry.TotalYieldL,
	)
	stored, err := scanLaneLog(row)
	if err != nil {
		return models.LaneLogEntry{}, fmt.Errorf("upsert lane log: %w", err)
	}
	return stored, nil
}

// FindLaneLog loads one row by natural key.
func (s *Store) FindLaneLog(ctx context.Context, date time.Time, laneNo int, cowID string) (models.LaneLogEntry, error) {
	query := `
		SELECT ` + laneLogColumns + `
		FROM daily_lane_log
		WHERE date = $1::date AND lane_no = $2 AND cow_id = $3
	`
	entry, err := scanLaneLog(s.db.QueryRowContext(ctx, query, models.FormatDate(date), laneNo, cowID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.LaneLogEntry{}, repository.ErrNotFound
	}
	if err != nil {
		return models.LaneLogEntry{}, fmt.Errorf("find lane log: %w", err)
	}
	return entry, nil
}

// ListLaneLogs returns matching rows ordered by date, lane and cow.
func (s *Store) ListLaneLogs(ctx context.Context, filter repository.LaneLogFilter) ([]models.LaneLogEntry, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + laneLogColumns + ` FROM daily_lane_log` + where + ` ORDER BY date, lane_no, cow_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lane logs: %w", err)
	}
	defer rows.Close()

	var entries []models.LaneLogEntry
	for rows.Next() {
		e, err := scanLaneLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lane log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteLaneLogs removes matching rows. An empty filter is refused.
func (s *Store) DeleteLaneLogs(ctx context.Context, filter repository.LaneLogFilter) (int64, error) {
	where, args := whereClause(filter)
	if where == "" {
		return 0, fmt.Errorf("delete lane logs: empty filter")
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM daily_lane_log`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete lane logs: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// AggregateDaily sums feed and milk per (date, cow).
func (s *Store) AggregateDaily(ctx context.Context, filter repository.LaneLogFilter) ([]repository.DayTotal, error) {
	where, args := whereClause(filter)
	query := `
		SELECT date, cow_id,
		       SUM(feed_given_kg) AS feed,
		       SUM(total_yield_l) AS milk,
		       MAX(lane_no) AS last_lane
		FROM daily_lane_log` + where + `
		GROUP BY date, cow_id
		ORDER BY date, cow_id
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate lane logs: %w", err)
	}
	defer rows.Close()

	var totals []repository.DayTotal
	for rows.Next() {
		var (
			t          repository.DayTotal
			feed, milk sql.NullFloat64
		)
		if err := rows.Scan(&t.Date, &t.CowID, &feed, &milk, &t.LastLane); err != nil {
			return nil, fmt.Errorf("scan day total: %w", err)
		}
		t.Date = models.DateOf(t.Date)
		t.Feed, t.HasFeed = feed.Float64, feed.Valid
		t.Milk, t.HasMilk = milk.Float64, milk.Valid
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func scanCow(row rowScanner) (models.Cow, error) {
	var (
		c       models.Cow
		rfid    sql.NullString
		cowType string
	)
	if err := row.Scan(&c.CowID, &rfid, &c.Name, &cowType, &c.Status, &c.CreatedAt); err != nil {
		return models.Cow{}, err
	}
	c.RFIDUID = rfid.String
	c.CowType = models.CowType(cowType)
	return c, nil
}

// GetCow loads a cow by id.
func (s *Store) GetCow(ctx context.Context, cowID string) (models.Cow, error) {
	query := `
		SELECT cow_id, rfid_uid, name, cow_type, status, created_at
		FROM cows
		WHERE cow_id = $1
	`
	cow, err := scanCow(s.db.QueryRowContext(ctx, query, cowID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Cow{}, repository.ErrNotFound
	}
	if err != nil {
		return models.Cow{}, fmt.Errorf("get cow: %w", err)
	}
	return cow, nil
}

// ListActiveCows returns active cows ordered by id.
func (s *Store) ListActiveCows(ctx context.Context) ([]models.Cow, error) {
	query := `
		SELECT cow_id, rfid_uid, name, cow_type, status, created_at
		FROM cows
		WHERE status = $1
		ORDER BY cow_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.CowStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active cows: %w", err)
	}
	defer rows.Close()

	var cows []models.Cow
	for rows.Next() {
		c, err := scanCow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cow: %w", err)
		}
		cows = append(cows, c)
	}
	return cows, rows.Err()
}

// UpsertCow inserts or updates a cow keyed by cow id.
func (s *Store) UpsertCow(ctx context.Context, cow models.Cow) error {
	query := `
		INSERT INTO cows (cow_id, rfid_uid, name, cow_type, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cow_id) DO UPDATE
		SET rfid_uid = EXCLUDED.rfid_uid,
		    name = EXCLUDED.name,
		    cow_type = EXCLUDED.cow_type,
		    status = EXCLUDED.status,
		    updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.ExecContext(ctx, query, cow.CowID, models.String(cow.RFIDUID), cow.Name, string(cow.CowType), cow.Status)
	if err != nil {
		return fmt.Errorf("upsert cow: %w", err)
	}
	return nil
}

// DeleteCow removes a cow from the master table.
func (s *Store) DeleteCow(ctx context.Context, cowID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cows WHERE cow_id = $1`, cowID); err != nil {
		return fmt.Errorf("delete cow: %w", err)
	}
	return nil
}

// UpsertCowMetric writes the per-cow daily rollup.
func (s *Store) UpsertCowMetric(ctx context.Context, metric models.DailyCowMetric) error {
	query := `
		INSERT INTO daily_cow_metrics (cow_id, date, feed_given_kg, milk_yield_litre, lane_id)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (cow_id, date) DO UPDATE
		SET feed_given_kg = EXCLUDED.feed_given_kg,
		    milk_yield_litre = EXCLUDED.milk_yield_litre,
		    lane_id = EXCLUDED.lane_id
	`
	_, err := s.db.ExecContext(ctx, query,
		metric.CowID, models.FormatDate(metric.Date), metric.FeedGivenKg, metric.MilkYieldL, metric.LaneID)
	if err != nil {
		return fmt.Errorf("upsert cow metric: %w", err)
	}
	return nil
}

func scanCowMetric(row rowScanner) (models.DailyCowMetric, error) {
	var m models.DailyCowMetric
	if err := row.Scan(&m.CowID, &m.Date, &m.FeedGivenKg, &m.MilkYieldL, &m.LaneID, &m.CreatedAt); err != nil {
		return models.DailyCowMetric{}, err
	}
	m.Date = models.DateOf(m.Date)
	return m, nil
}

// GetCowMetric loads the rollup of one cow on one day.
func (s *Store) GetCowMetric(ctx context.Context, cowID string, date time.Time) (models.DailyCowMetric, error) {
	query := `
		SELECT cow_id, date, feed_given_kg, milk_yield_litre, lane_id, created_at
		FROM daily_cow_metrics
		WHERE cow_id = $1 AND date = $2::date
	`
	m, err := scanCowMetric(s.db.QueryRowContext(ctx, query, cowID, models.FormatDate(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyCowMetric{}, repository.ErrNotFound
	}
	if err != nil {
		return models.DailyCowMetric{}, fmt.Errorf("get cow metric: %w", err)
	}
	return m, nil
}

// ListCowMetrics returns every rollup of a day ordered by cow.
func (s *Store) ListCowMetrics(ctx context.Context, date time.Time) ([]models.DailyCowMetric, error) {
	query := `
		SELECT cow_id, date, feed_given_kg, milk_yield_litre, lane_id, created_at
		FROM daily_cow_metrics
		WHERE date = $1::date
		ORDER BY cow_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("list cow metrics: %w", err)
	}
	defer rows.Close()

	var metrics []models.DailyCowMetric
	for rows.Next() {
		m, err := scanCowMetric(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cow metric: %w", err)
		}
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// UpsertCowStatus writes the status of a cow for a day. A zero UpdatedAt is
// filled with the database time.
func (s *Store) UpsertCowStatus(ctx context.Context, status models.CowDailyStatus) error {
	query := `
		INSERT INTO cow_daily_status (cow_id, date, status, reason, updated_at)
		VALUES ($1, $2::date, $3, $4, COALESCE($5::timestamptz, CURRENT_TIMESTAMP))
		ON CONFLICT (cow_id, date) DO UPDATE
		SET status = EXCLUDED.status,
		    reason = EXCLUDED.reason,
		    updated_at = EXCLUDED.updated_at
	`
	updatedAt := sql.NullTime{Time: status.UpdatedAt, Valid: !status.UpdatedAt.IsZero()}
	_, err := s.db.ExecContext(ctx, query,
		status.CowID, models.FormatDate(status.Date), string(status.Status), status.Reason, updatedAt)
	if err != nil {
		return fmt.Errorf("upsert cow status: %w", err)
	}
	return nil
}

func scanCowStatus(row rowScanner) (models.CowDailyStatus, error) {
	var (
		st     models.CowDailyStatus
		code   string
		reason sql.NullString
	)
	if err := row.Scan(&st.CowID, &st.Date, &code, &reason, &st.UpdatedAt); err != nil {
		return models.CowDailyStatus{}, err
	}
	st.Date = models.DateOf(st.Date)
	st.Status = models.StatusCode(code)
	st.Reason = nullableString(reason)
	return st, nil
}

// GetCowStatus loads the status of one cow on one day.
func (s *Store) GetCowStatus(ctx context.Context, cowID string, date time.Time) (models.CowDailyStatus, error) {
	query := `
		SELECT cow_id, date, status, reason, updated_at
		FROM cow_daily_status
		WHERE cow_id = $1 AND date = $2::date
	`
	st, err := scanCowStatus(s.db.QueryRowContext(ctx, query, cowID, models.FormatDate(date)))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CowDailyStatus{}, repository.ErrNotFound
	}
	if err != nil {
		return models.CowDailyStatus{}, fmt.Errorf("get cow status: %w", err)
	}
	return st, nil
}

// ListCowStatuses returns every status row of a day ordered by cow.
func (s *Store) ListCowStatuses(ctx context.Context, date time.Time) ([]models.CowDailyStatus, error) {
	query := `
		SELECT cow_id, date, status, reason, updated_at
		FROM cow_daily_status
		WHERE date = $1::date
		ORDER BY cow_id
	`
	rows, err := s.db.QueryContext(ctx, query, models.FormatDate(date))
	if err != nil {
		return nil, fmt.Errorf("list cow statuses: %w", err)
	}
	defer rows.Close()

	var statuses []models.CowDailyStatus
	for rows.Next() {
		st, err := scanCowStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cow status: %w", err)
		}
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

// CountStatuses counts distinct cows holding the given status on a day.
func (s *Store) CountStatuses(ctx context.Context, date time.Time, status models.StatusCode) (int, error) {
	query := `
		SELECT COUNT(DISTINCT cow_id)
		FROM cow_daily_status
		WHERE date = $1::date AND status = $2
	`
	var n int
	if err := s.db.QueryRowContext(ctx, query, models.FormatDate(date), string(status)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count statuses: %w", err)
	}
	return n, nil
}

// UpsertFarmSummary writes the farm rollup of a day.
func (s *Store) UpsertFarmSummary(ctx context.Context, summary models.DailyFarmSummary) error {
	query := `
		INSERT INTO daily_farm_summary (date, total_feed_kg, total_milk_litre, best_cow_id, lowest_cow_id)
		VALUES ($1::date, $2, $3, $4, $5)
		ON CONFLICT (date) DO UPDATE
		SET total_feed_kg = EXCLUDED.total_feed_kg,
		    total_milk_litre = EXCLUDED.total_milk_litre,
		    best_cow_id = EXCLUDED.best_cow_id,
		    lowest_cow_id = EXCLUDED.lowest_cow_id
	`
	_, err := s.db.ExecContext(ctx, query,
		models.FormatDate(summary.Date), summary.TotalFeedKg, summary.TotalMilkL, summary.BestCowID, summary.LowestCowID)
	if err != nil {
		return fmt.Errorf("upsert farm summary: %w", err)
	}
	return nil
}

// GetFarmSummary loads the farm rollup of a day.
func (s *Store) GetFarmSummary(ctx context.Context, date time.Time) (models.DailyFarmSummary, error) {
	query := `
		SELECT date, total_feed_kg, total_milk_litre, best_cow_id, lowest_cow_id, created_at
		FROM daily_farm_summary
		WHERE date = $1::date
	`
	var (
		summary      models.DailyFarmSummary
		best, lowest sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, models.FormatDate(date)).Scan(
		&summary.Date,
		&summary.TotalFeedKg,
		&summary.TotalMilkL,
		&best,
		&lowest,
		&summary.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DailyFarmSummary{}, repository.ErrNotFound
	}
	if err != nil {
		return models.DailyFarmSummary{}, fmt.Errorf("get farm summary: %w", err)
	}
	summary.Date = models.DateOf(summary.Date)
	summary.BestCowID = nullableString(best)
	summary.LowestCowID = nullableString(lowest)
	return summary, nil
}

// DeleteCowDerived drops the cached metrics and statuses of a cow.
func (s *Store) DeleteCowDerived(ctx context.Context, cowID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_cow_metrics WHERE cow_id = $1`, cowID); err != nil {
		return fmt.Errorf("delete cow metrics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM cow_daily_status WHERE cow_id = $1`, cowID); err != nil {
		return fmt.Errorf("delete cow statuses: %w", err)
	}
	return tx.Commit()
}
