package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/dairysense/internal/config"
)

var ErrInvalidRange = errors.New("report range must name a tab, e.g. Summary!A:F")

// Repository is the part of the Sheets values API the summary export needs.
type Repository interface {
	AppendRow(ctx context.Context, sheetRange string, values []any) error
	ReadRange(ctx context.Context, sheetRange string) ([][]any, error)
}

// ReportSheet is the spreadsheet holding the daily farm reports.
type ReportSheet struct {
	values        *sheetsapi.SpreadsheetsValuesService
	spreadsheetID string
	logger        *zap.Logger
}

// OpenReportSheet connects to the report spreadsheet with the service account
// in cfg.CredentialsPath.
func OpenReportSheet(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*ReportSheet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled() {
		return nil, errors.New("report sheet needs GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID")
	}
	if err := checkRange(cfg.SummaryRange); err != nil {
		return nil, err
	}

	service, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("connect report sheet %s: %w", cfg.SpreadsheetID, err)
	}

	return &ReportSheet{
		values:        service.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger.With(zap.String("spreadsheet_id", cfg.SpreadsheetID)),
	}, nil
}

// AppendRow adds a report row below the last one. Values are written RAW so
// that dates stay YYYY-MM-DD text and match on the next export.
func (s *ReportSheet) AppendRow(ctx context.Context, sheetRange string, values []any) error {
	if err := checkRange(sheetRange); err != nil {
		return err
	}

	payload := &sheetsapi.ValueRange{MajorDimension: "ROWS", Values: [][]any{values}}
	_, err := s.values.Append(s.spreadsheetID, sheetRange, payload).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append report row to %s: %w", sheetRange, err)
	}

	s.logger.Debug("report row appended", zap.String("range", sheetRange), zap.Any("key", firstCell(values)))
	return nil
}

// ReadRange returns the report rows already in sheetRange.
func (s *ReportSheet) ReadRange(ctx context.Context, sheetRange string) ([][]any, error) {
	if err := checkRange(sheetRange); err != nil {
		return nil, err
	}

	resp, err := s.values.Get(s.spreadsheetID, sheetRange).
		MajorDimension("ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("read report rows from %s: %w", sheetRange, err)
	}
	return resp.Values, nil
}

func checkRange(sheetRange string) error {
	tab, cells, ok := strings.Cut(sheetRange, "!")
	if !ok || strings.TrimSpace(tab) == "" || strings.TrimSpace(cells) == "" {
		return fmt.Errorf("%w: got %q", ErrInvalidRange, sheetRange)
	}
	return nil
}

func firstCell(values []any) any {
	if len(values) == 0 {
		return nil
	}
	return values[0]
}
