package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

// Monitor is the part of the monitoring service the daily report reads from.
type Monitor interface {
	Dashboard(ctx context.Context, date time.Time) (models.Dashboard, error)
	CowsList(ctx context.Context, date time.Time) ([]models.CowListItem, error)
	DailySummary(ctx context.Context, date time.Time) (models.SummaryView, error)
}

// Exporter mirrors a farm summary to an external sheet.
type Exporter interface {
	Export(ctx context.Context, summary models.SummaryView, ratio float64) (bool, error)
}

// Sender delivers a text alert.
type Sender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// Report is the outcome of one daily run.
type Report struct {
	Dashboard models.Dashboard
	Summary   models.SummaryView
	Flagged   []models.CowListItem
	Exported  bool
	Notified  bool
	Message   string
}

// Service produces the end-of-day farm report. The exporter and sender are
// optional; a nil one skips that step.
type Service struct {
	monitor   Monitor
	exporter  Exporter
	sender    Sender
	recipient string
	logger    *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(monitor Monitor, exporter Exporter, sender Sender, recipient string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		monitor:   monitor,
		exporter:  exporter,
		sender:    sender,
		recipient: recipient,
		logger:    logger,
	}
}

// RunDaily refreshes the derived data of date, exports the farm summary and
// alerts the recipient about cows that are not NORMAL. Export and alert
// failures are logged and do not fail the run.
func (s *Service) RunDaily(ctx context.Context, date time.Time) (Report, error) {
	dashboard, err := s.monitor.Dashboard(ctx, date)
	if err != nil {
		return Report{}, fmt.Errorf("refresh dashboard: %w", err)
	}
	cows, err := s.monitor.CowsList(ctx, date)
	if err != nil {
		return Report{}, fmt.Errorf("list cows: %w", err)
	}
	summary, err := s.monitor.DailySummary(ctx, date)
	if err != nil {
		return Report{}, fmt.Errorf("load summary: %w", err)
	}

	report := Report{
		Dashboard: dashboard,
		Summary:   summary,
		Flagged:   FlaggedCows(cows),
	}
	report.Message = FormatAlert(report)

	if s.exporter != nil {
		exported, err := s.exporter.Export(ctx, summary, dashboard.YieldFeedRatio)
		if err != nil {
			s.logger.Error("summary export failed", zap.String("date", dashboard.Date), zap.Error(err))
		}
		report.Exported = exported
	}

	if s.sender != nil && s.recipient != "" {
		id, err := s.sender.SendText(ctx, s.recipient, report.Message)
		if err != nil {
			s.logger.Error("daily alert failed", zap.String("date", dashboard.Date), zap.Error(err))
		} else {
			report.Notified = true
			s.logger.Info("daily alert sent", zap.String("date", dashboard.Date), zap.String("message_id", id))
		}
	}

	s.logger.Info("daily report done",
		zap.String("date", dashboard.Date),
		zap.Int("flagged", len(report.Flagged)),
		zap.Bool("exported", report.Exported),
		zap.Bool("notified", report.Notified),
	)
	return report, nil
}

// FlaggedCows keeps the cows whose status is not NORMAL, ATTENTION first and
// then by cow id.
func FlaggedCows(cows []models.CowListItem) []models.CowListItem {
	flagged := make([]models.CowListItem, 0)
	for _, c := range cows {
		if c.Status != models.StatusNormal {
			flagged = append(flagged, c)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		ai := flagged[i].Status == models.StatusAttention
		aj := flagged[j].Status == models.StatusAttention
		if ai != aj {
			return ai
		}
		return flagged[i].CowID < flagged[j].CowID
	})
	return flagged
}

// FormatAlert renders the WhatsApp text of a report.
func FormatAlert(r Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dairy report %s\n", r.Dashboard.Date)
	fmt.Fprintf(&b, "Cows: %d | Milk: %.2f L | Feed: %.2f kg | Ratio: %.2f\n",
		r.Dashboard.TotalCows, r.Dashboard.TotalMilk, r.Dashboard.TotalFeed, r.Dashboard.YieldFeedRatio)
	if best := models.StringValue(r.Summary.BestCowID); best != "" {
		fmt.Fprintf(&b, "Best: %s", best)
		if lowest := models.StringValue(r.Summary.LowestCowID); lowest != "" {
			fmt.Fprintf(&b, " | Lowest: %s", lowest)
		}
		b.WriteString("\n")
	}

	if len(r.Flagged) == 0 {
		b.WriteString("All cows normal.")
		return b.String()
	}

	fmt.Fprintf(&b, "Needs a look (%d):", len(r.Flagged))
	for _, c := range r.Flagged {
		fmt.Fprintf(&b, "\n- %s %s (%.2f L)", c.CowID, c.Status, c.TodayMilk)
	}
	return b.String()
}
