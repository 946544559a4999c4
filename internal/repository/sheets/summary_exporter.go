package sheets

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

// SummaryHeader names the columns written by SummaryExporter.
var SummaryHeader = []any{"date", "total_feed_kg", "total_milk_l", "yield_feed_ratio", "best_cow", "lowest_cow"}

// SummaryExporter mirrors daily farm summaries into a spreadsheet, one row per day.
type SummaryExporter struct {
	repo       Repository
	sheetRange string
	logger     *zap.Logger
}

// NewSummaryExporter writes into sheetRange, e.g. "Summary!A:F".
func NewSummaryExporter(repo Repository, sheetRange string, logger *zap.Logger) *SummaryExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryExporter{repo: repo, sheetRange: sheetRange, logger: logger}
}

// Export appends the row for summary unless the sheet already has that date.
// The header is written first when the sheet is empty. It reports whether a
// row was appended.
func (e *SummaryExporter) Export(ctx context.Context, summary models.SummaryView, ratio float64) (bool, error) {
	rows, err := e.repo.ReadRange(ctx, e.sheetRange)
	if err != nil {
		return false, err
	}

	date := summary.Date
	if len(rows) == 0 {
		if err := e.repo.AppendRow(ctx, e.sheetRange, SummaryHeader); err != nil {
			return false, fmt.Errorf("write summary header: %w", err)
		}
	} else if hasDate(rows, date) {
		e.logger.Debug("summary already exported", zap.String("date", date))
		return false, nil
	}

	if err := e.repo.AppendRow(ctx, e.sheetRange, SummaryRow(summary, ratio)); err != nil {
		return false, fmt.Errorf("export summary %s: %w", date, err)
	}
	e.logger.Info("summary exported", zap.String("date", date))
	return true, nil
}

// SummaryRow renders one summary in SummaryHeader order. Missing cows are empty cells.
func SummaryRow(summary models.SummaryView, ratio float64) []any {
	return []any{
		summary.Date,
		summary.TotalFeed,
		summary.TotalMilk,
		ratio,
		models.StringValue(summary.BestCowID),
		models.StringValue(summary.LowestCowID),
	}
}

func hasDate(rows [][]any, date string) bool {
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == date {
			return true
		}
	}
	return false
}
