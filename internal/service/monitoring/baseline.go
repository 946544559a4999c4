package monitoring

import (
	"context"
	"time"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

// Metric selects the lane-log quantity a baseline is computed over.
type Metric int

const (
	MetricMilk Metric = iota
	MetricFeed
)

// BaselineDays is the length of the trailing baseline window, target day included.
const BaselineDays = 7

// SevenDayAverage is the mean of metric over [target-6, target]. The sum is
// always divided by BaselineDays: days without a value count as zero.
func (s *Service) SevenDayAverage(ctx context.Context, cowID string, target time.Time, metric Metric) (float64, error) {
	to := models.DateOf(target)
	from := models.AddDays(to, -(BaselineDays - 1))

	totals, err := s.RangeSum(ctx, cowID, from, to)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, t := range totals {
		switch metric {
		case MetricFeed:
			sum += t.Feed
		default:
			sum += t.Milk
		}
	}
	return sum / BaselineDays, nil
}
