package monitoring

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

const (
	ReasonNoYield     = "No yield recorded"
	ReasonYieldBelow  = "Yield dropped below 80%"
	ReasonMinorDrop   = "Minor yield drop"
	attentionFraction = 0.8
	slightFraction    = 0.9
)

// Classify maps today's milk against the trailing average. Rules are
// evaluated in order and the first match wins; comparisons are strict.
func Classify(todayMilk, average float64) (models.StatusCode, *string) {
	switch {
	case average == 0 && todayMilk == 0:
		return models.StatusAttention, models.String(ReasonNoYield)
	case average == 0:
		return models.StatusNormal, nil
	case todayMilk == 0:
		return models.StatusAttention, models.String(ReasonNoYield)
	case todayMilk < attentionFraction*average:
		return models.StatusAttention, models.String(ReasonYieldBelow)
	case todayMilk < slightFraction*average:
		return models.StatusSlightDrop, models.String(ReasonMinorDrop)
	default:
		return models.StatusNormal, nil
	}
}

// ComputeStatus classifies a cow for date and upserts the result.
func (s *Service) ComputeStatus(ctx context.Context, cowID string, date time.Time) (models.CowDailyStatus, error) {
	d := models.DateOf(date)

	today, err := s.SumCowDay(ctx, cowID, d)
	if err != nil {
		return models.CowDailyStatus{}, err
	}
	average, err := s.SevenDayAverage(ctx, cowID, d, MetricMilk)
	if err != nil {
		return models.CowDailyStatus{}, err
	}

	// today.Feed is loaded with the milk total but takes no part in the rules.
	code, reason := Classify(today.Milk, average)
	status := models.CowDailyStatus{
		CowID:     cowID,
		Date:      d,
		Status:    code,
		Reason:    reason,
		UpdatedAt: s.now(),
	}
	if err := s.store.UpsertCowStatus(ctx, status); err != nil {
		return models.CowDailyStatus{}, fmt.Errorf("upsert status %s %s: %w", cowID, models.FormatDate(d), err)
	}

	statusComputedTotal.WithLabelValues(string(code)).Inc()
	s.logger.Debug("cow status computed",
		zap.String("cow_id", cowID),
		zap.String("date", models.FormatDate(d)),
		zap.String("status", string(code)),
		zap.Float64("milk", today.Milk),
		zap.Float64("average", average),
	)
	return status, nil
}
