package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

// SumCowDay sums feed and milk across every lane row of a cow on one day.
// A day without rows yields zeros, not an error.
func (s *Service) SumCowDay(ctx context.Context, cowID string, date time.Time) (repository.DayTotal, error) {
	d := models.DateOf(date)
	totals, err := s.store.AggregateDaily(ctx, repository.LaneLogFilter{CowID: cowID, From: d, To: d})
	if err != nil {
		return repository.DayTotal{}, fmt.Errorf("sum cow day %s: %w", cowID, err)
	}
	if len(totals) == 0 {
		return repository.DayTotal{Date: d, CowID: cowID}, nil
	}
	return totals[0], nil
}

// RangeSum returns the per-day totals of a cow over [from, to], ascending.
// Days without rows are absent from the result.
func (s *Service) RangeSum(ctx context.Context, cowID string, from, to time.Time) ([]repository.DayTotal, error) {
	totals, err := s.store.AggregateDaily(ctx, repository.LaneLogFilter{
		CowID: cowID,
		From:  models.DateOf(from),
		To:    models.DateOf(to),
	})
	if err != nil {
		return nil, fmt.Errorf("range sum %s: %w", cowID, err)
	}
	return totals, nil
}

// DayAggregateAllCows returns one total per cow with activity on date.
func (s *Service) DayAggregateAllCows(ctx context.Context, date time.Time) ([]repository.DayTotal, error) {
	totals, err := s.store.AggregateDaily(ctx, repository.ForDay(date))
	if err != nil {
		return nil, fmt.Errorf("aggregate day %s: %w", models.FormatDate(date), err)
	}
	return totals, nil
}

// HistoryRange returns the per (date, cow) totals over [from, to], ordered by
// date then cow.
func (s *Service) HistoryRange(ctx context.Context, from, to time.Time) ([]repository.DayTotal, error) {
	totals, err := s.store.AggregateDaily(ctx, repository.LaneLogFilter{
		From: models.DateOf(from),
		To:   models.DateOf(to),
	})
	if err != nil {
		return nil, fmt.Errorf("history range: %w", err)
	}
	return totals, nil
}
