package monitoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrMissingDate  = errors.New("date is required")
	ErrInvalidRange = errors.New("from must not be after to")
	ErrCowNotFound  = errors.New("cow not found")
)

const (
	defaultWorkers = 8
	historyDays    = 7
	trendDays      = 14
	noLane         = "-"
)

// Service derives cow statuses and farm summaries from the lane log and
// assembles the monitoring views.
type Service struct {
	store   repository.Store
	logger  *zap.Logger
	now     func() time.Time
	workers int
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithWorkers bounds the number of concurrent status computations.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// NewService wires a monitoring service on top of store.
func NewService(store repository.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:   store,
		logger:  logger,
		now:     time.Now,
		workers: defaultWorkers,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day of the server's local clock.
func (s *Service) Today() time.Time {
	return models.DateOf(s.now())
}

// ResolveDate parses an optional date parameter, defaulting to today.
func (s *Service) ResolveDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return s.Today(), nil
	}
	return RequireDate(value)
}

// RequireDate parses a mandatory date parameter.
func RequireDate(value string) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Time{}, ErrMissingDate
	}
	d, err := models.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return d, nil
}

// Dashboard refreshes the farm summary and every active cow's status for date
// and returns the farm overview.
func (s *Service) Dashboard(ctx context.Context, date time.Time) (models.Dashboard, error) {
	d := models.DateOf(date)

	summary, err := s.SyncFarmSummary(ctx, d)
	if err != nil {
		return models.Dashboard{}, err
	}

	cows, err := s.store.ListActiveCows(ctx)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("list active cows: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, cow := range cows {
		g.Go(func() error {
			_, err := s.ComputeStatus(gctx, cow.CowID, d)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return models.Dashboard{}, err
	}

	lowYield, err := s.store.CountStatuses(ctx, d, models.StatusAttention)
	if err != nil {
		return models.Dashboard{}, fmt.Errorf("count attention statuses: %w", err)
	}

	return models.Dashboard{
		Date:           models.FormatDate(d),
		TotalCows:      len(cows),
		TotalMilk:      round2(summary.TotalMilkL),
		TotalFeed:      round2(summary.TotalFeedKg),
		YieldFeedRatio: yieldFeedRatio(summary.TotalMilkL, summary.TotalFeedKg),
		LowYieldCount:  lowYield,
	}, nil
}

// CowsList returns one row per active cow with its metrics and status for
// date. Missing statuses, and ATTENTION statuses without milk, are recomputed.
func (s *Service) CowsList(ctx context.Context, date time.Time) ([]models.CowListItem, error) {
	d := models.DateOf(date)

	if _, err := s.SyncDailyMetrics(ctx, d); err != nil {
		return nil, err
	}

	cows, err := s.store.ListActiveCows(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active cows: %w", err)
	}
	metrics, err := s.store.ListCowMetrics(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("list cow metrics: %w", err)
	}
	statuses, err := s.store.ListCowStatuses(ctx, d)
	if err != nil {
		return nil, fmt.Errorf("list cow statuses: %w", err)
	}

	metricByCow := make(map[string]models.DailyCowMetric, len(metrics))
	for _, m := range metrics {
		metricByCow[m.CowID] = m
	}
	statusByCow := make(map[string]models.CowDailyStatus, len(statuses))
	for _, st := range statuses {
		statusByCow[st.CowID] = st
	}

	items := make([]models.CowListItem, 0, len(cows))
	for _, cow := range cows {
		m := metricByCow[cow.CowID]
		item := models.CowListItem{
			CowID:     cow.CowID,
			TodayMilk: m.MilkYieldL,
			TodayFeed: m.FeedGivenKg,
		}

		st, ok := statusByCow[cow.CowID]
		if !ok || (st.Status == models.StatusAttention && item.TodayMilk == 0) {
			st, err = s.ComputeStatus(ctx, cow.CowID, d)
			if err != nil {
				return nil, err
			}
		}
		item.Status = st.Status
		items = append(items, item)
	}
	return items, nil
}

// CowDetail returns today's values, baselines and trend series of one cow.
func (s *Service) CowDetail(ctx context.Context, cowID string, date time.Time) (models.CowDetail, error) {
	d := models.DateOf(date)

	cow, err := s.store.GetCow(ctx, cowID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.CowDetail{}, fmt.Errorf("%w: %s", ErrCowNotFound, cowID)
	}
	if err != nil {
		return models.CowDetail{}, fmt.Errorf("get cow %s: %w", cowID, err)
	}

	today, err := s.SumCowDay(ctx, cowID, d)
	if err != nil {
		return models.CowDetail{}, err
	}
	avgMilk, err := s.SevenDayAverage(ctx, cowID, d, MetricMilk)
	if err != nil {
		return models.CowDetail{}, err
	}
	avgFeed, err := s.SevenDayAverage(ctx, cowID, d, MetricFeed)
	if err != nil {
		return models.CowDetail{}, err
	}

	history, err := s.RangeSum(ctx, cowID, models.AddDays(d, -(historyDays-1)), d)
	if err != nil {
		return models.CowDetail{}, err
	}
	trend, err := s.RangeSum(ctx, cowID, models.AddDays(d, -(trendDays-1)), d)
	if err != nil {
		return models.CowDetail{}, err
	}

	detail := models.CowDetail{
		CowID:               cow.CowID,
		TagID:               cow.TagID(),
		Today:               models.DayValues{Milk: today.Milk, Feed: today.Feed},
		SevenDayAverage:     round2(avgMilk),
		SevenDayAverageFeed: round2(avgFeed),
		SevenDayHistory:     make([]models.DailyPoint, 0, len(history)),
		YieldTrend:          make([]models.YieldPoint, 0, len(trend)),
	}
	for _, t := range history {
		detail.SevenDayHistory = append(detail.SevenDayHistory, models.DailyPoint{
			Date: models.FormatDate(t.Date),
			Milk: t.Milk,
			Feed: t.Feed,
		})
	}
	for _, t := range trend {
		if !t.HasMilk {
			continue
		}
		detail.YieldTrend = append(detail.YieldTrend, models.YieldPoint{
			Date: models.FormatDate(t.Date),
			Milk: t.Milk,
		})
	}
	return detail, nil
}

// DailySummary reads the persisted farm summary of date, computing it first
// when absent.
func (s *Service) DailySummary(ctx context.Context, date time.Time) (models.SummaryView, error) {
	d := models.DateOf(date)

	summary, err := s.store.GetFarmSummary(ctx, d)
	if errors.Is(err, repository.ErrNotFound) {
		if _, err := s.SyncFarmSummary(ctx, d); err != nil {
			return models.SummaryView{}, err
		}
		summary, err = s.store.GetFarmSummary(ctx, d)
	}
	if err != nil {
		return models.SummaryView{}, fmt.Errorf("load farm summary %s: %w", models.FormatDate(d), err)
	}

	return models.SummaryView{
		Date:        models.FormatDate(summary.Date),
		TotalFeed:   summary.TotalFeedKg,
		TotalMilk:   summary.TotalMilkL,
		BestCowID:   summary.BestCowID,
		LowestCowID: summary.LowestCowID,
	}, nil
}

// HistoryLog lists per (date, cow) totals in [from, to], newest day first and
// cow id ascending within a day.
func (s *Service) HistoryLog(ctx context.Context, from, to time.Time) ([]models.HistoryRow, error) {
	from, to = models.DateOf(from), models.DateOf(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, models.FormatDate(from), models.FormatDate(to))
	}

	totals, err := s.HistoryRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(totals, func(i, j int) bool {
		if !totals[i].Date.Equal(totals[j].Date) {
			return totals[i].Date.After(totals[j].Date)
		}
		return totals[i].CowID < totals[j].CowID
	})

	rows := make([]models.HistoryRow, 0, len(totals))
	for _, t := range totals {
		lane := laneID(t.LastLane)
		if lane == "" {
			lane = noLane
		}
		rows = append(rows, models.HistoryRow{
			Date:  models.FormatDate(t.Date),
			CowID: t.CowID,
			Feed:  t.Feed,
			Milk:  t.Milk,
			Lane:  lane,
		})
	}
	return rows, nil
}

func yieldFeedRatio(milk, feed float64) float64 {
	if feed == 0 {
		return 0
	}
	return round2(milk / feed)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
