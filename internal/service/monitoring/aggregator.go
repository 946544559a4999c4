package monitoring

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

// SyncDailyMetrics recomputes the per-cow rollup of every cow active on date
// and returns the totals it wrote.
func (s *Service) SyncDailyMetrics(ctx context.Context, date time.Time) ([]repository.DayTotal, error) {
	timer := prometheus.NewTimer(syncDuration.WithLabelValues("daily_metrics"))
	defer timer.ObserveDuration()

	d := models.DateOf(date)
	totals, err := s.DayAggregateAllCows(ctx, d)
	if err != nil {
		syncErrors.WithLabelValues("daily_metrics").Inc()
		return nil, err
	}

	for _, t := range totals {
		metric := models.DailyCowMetric{
			CowID:       t.CowID,
			Date:        d,
			FeedGivenKg: t.Feed,
			MilkYieldL:  t.Milk,
			LaneID:      laneID(t.LastLane),
		}
		if err := s.store.UpsertCowMetric(ctx, metric); err != nil {
			syncErrors.WithLabelValues("daily_metrics").Inc()
			return nil, fmt.Errorf("upsert metric %s %s: %w", t.CowID, models.FormatDate(d), err)
		}
	}

	s.logger.Debug("daily metrics synced",
		zap.String("date", models.FormatDate(d)),
		zap.Int("cows", len(totals)),
	)
	return totals, nil
}

// SyncFarmSummary refreshes the daily metrics of date, then recomputes and
// upserts the farm summary.
func (s *Service) SyncFarmSummary(ctx context.Context, date time.Time) (models.DailyFarmSummary, error) {
	timer := prometheus.NewTimer(syncDuration.WithLabelValues("farm_summary"))
	defer timer.ObserveDuration()

	d := models.DateOf(date)
	totals, err := s.SyncDailyMetrics(ctx, d)
	if err != nil {
		return models.DailyFarmSummary{}, err
	}

	summary := summarize(d, totals)
	if err := s.store.UpsertFarmSummary(ctx, summary); err != nil {
		syncErrors.WithLabelValues("farm_summary").Inc()
		return models.DailyFarmSummary{}, fmt.Errorf("upsert farm summary %s: %w", models.FormatDate(d), err)
	}

	s.logger.Debug("farm summary synced",
		zap.String("date", models.FormatDate(d)),
		zap.Float64("total_milk", summary.TotalMilkL),
		zap.Float64("total_feed", summary.TotalFeedKg),
	)
	return summary, nil
}

// summarize totals the day and picks the best and lowest yielding cows among
// those with a recorded yield. Ties go to the smallest cow id.
func summarize(date time.Time, totals []repository.DayTotal) models.DailyFarmSummary {
	summary := models.DailyFarmSummary{Date: date}

	var best, lowest *repository.DayTotal
	for i := range totals {
		t := &totals[i]
		summary.TotalFeedKg += t.Feed
		summary.TotalMilkL += t.Milk

		if !t.HasMilk {
			continue
		}
		if best == nil || t.Milk > best.Milk || (t.Milk == best.Milk && t.CowID < best.CowID) {
			best = t
		}
		if lowest == nil || t.Milk < lowest.Milk || (t.Milk == lowest.Milk && t.CowID < lowest.CowID) {
			lowest = t
		}
	}

	if best != nil {
		summary.BestCowID = models.String(best.CowID)
	}
	if lowest != nil {
		summary.LowestCowID = models.String(lowest.CowID)
	}
	return summary
}

func laneID(lane int) string {
	if lane <= 0 {
		return ""
	}
	return strconv.Itoa(lane)
}
