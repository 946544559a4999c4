package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

type fakeRepo struct {
	rows    [][]any
	readErr error
}

func (f *fakeRepo) AppendRow(_ context.Context, _ string, values []any) error {
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeRepo) ReadRange(context.Context, string) ([][]any, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func testSummary() models.SummaryView {
	return models.SummaryView{
		Date:      "2024-01-10",
		TotalFeed: 20,
		TotalMilk: 22,
		BestCowID: models.String("COW001"),
	}
}

func TestSummaryRow(t *testing.T) {
	row := SummaryRow(testSummary(), 1.1)
	assert.Equal(t, []any{"2024-01-10", 20.0, 22.0, 1.1, "COW001", ""}, row)
	assert.Len(t, row, len(SummaryHeader))
}

func TestExportWritesHeaderOnEmptySheet(t *testing.T) {
	repo := &fakeRepo{}
	exporter := NewSummaryExporter(repo, "Summary!A:F", nil)

	written, err := exporter.Export(context.Background(), testSummary(), 1.1)
	require.NoError(t, err)
	assert.True(t, written)
	require.Len(t, repo.rows, 2)
	assert.Equal(t, SummaryHeader, repo.rows[0])
	assert.Equal(t, "2024-01-10", repo.rows[1][0])
}

func TestExportSkipsDateAlreadyPresent(t *testing.T) {
	repo := &fakeRepo{}
	exporter := NewSummaryExporter(repo, "Summary!A:F", nil)
	ctx := context.Background()

	_, err := exporter.Export(ctx, testSummary(), 1.1)
	require.NoError(t, err)
	written, err := exporter.Export(ctx, testSummary(), 1.1)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Len(t, repo.rows, 2)
}

func TestExportPropagatesReadError(t *testing.T) {
	exporter := NewSummaryExporter(&fakeRepo{readErr: errors.New("quota")}, "Summary!A:F", nil)

	_, err := exporter.Export(context.Background(), testSummary(), 0)
	assert.Error(t, err)
}
