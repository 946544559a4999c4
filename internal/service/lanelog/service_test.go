package lanelog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository/sqlite"
)

var fixedNow = time.Date(2024, 3, 5, 6, 45, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.OpenMemory(t.Name(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return NewService(store, nil, func() time.Time { return fixedNow }), store
}

func TestRecordFeedCreatesThenUpdates(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	require.NoError(t, store.UpsertCow(ctx, models.Cow{CowID: "COW001", CowType: models.CowTypePregnant, Status: models.CowStatusActive}))

	entry, err := svc.RecordFeed(ctx, 2, "COW001", 6.5, "")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", models.FormatDate(entry.Date))
	assert.Equal(t, models.CowTypePregnant, entry.CowType)
	assert.InDelta(t, 6.5, models.Value(entry.FeedGivenKg), 1e-9)
	assert.Nil(t, entry.TotalYieldL)

	entry, err = svc.RecordFeed(ctx, 2, "COW001", 7, "")
	require.NoError(t, err)
	assert.InDelta(t, 7.0, models.Value(entry.FeedGivenKg), 1e-9)

	logs, err := svc.TodayLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestRecordFeedDefaultsUnknownCowToNormal(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.RecordFeed(context.Background(), 1, "GHOST", 3, "")
	require.NoError(t, err)
	assert.Equal(t, models.CowTypeNormal, entry.CowType)
}

func TestRecordFeedValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordFeed(ctx, 0, "COW001", 3, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.RecordFeed(ctx, 1, " ", 3, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.RecordFeed(ctx, 1, "COW001", -1, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.RecordFeed(ctx, 1, "COW001", 1, "calf")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRecordMilkYieldRequiresEntryToday(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordMilkYield(context.Background(), "COW001", SessionMorning, 8)
	assert.ErrorIs(t, err, ErrNoEntryToday)
}

func TestRecordMilkYieldUpdatesEveryLaneOfTheCow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.RecordFeed(ctx, 1, "COW001", 4, models.CowTypeNormal)
	require.NoError(t, err)
	_, err = svc.RecordFeed(ctx, 3, "COW001", 2, models.CowTypeNormal)
	require.NoError(t, err)
	_, err = svc.RecordFeed(ctx, 2, "COW002", 5, models.CowTypeNormal)
	require.NoError(t, err)

	rows, err := svc.RecordMilkYield(ctx, "COW001", SessionMorning, 8)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = svc.RecordMilkYield(ctx, "COW001", SessionEvening, 5)
	require.NoError(t, err)
	for _, row := range rows {
		assert.InDelta(t, 8.0, models.Value(row.MorningYieldL), 1e-9)
		assert.InDelta(t, 5.0, models.Value(row.EveningYieldL), 1e-9)
		assert.InDelta(t, 13.0, models.Value(row.TotalYieldL), 1e-9)
	}

	other, err := svc.TodayEntry(ctx, 2, "COW002")
	require.NoError(t, err)
	require.NotNil(t, other)
	assert.Nil(t, other.TotalYieldL)
	assert.InDelta(t, 4.0, models.Value(rows[0].FeedGivenKg), 1e-9)
}

func TestRecordMilkYieldRejectsUnknownSession(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.RecordMilkYield(context.Background(), "COW001", "noon", 3)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTodayEntryMissing(t *testing.T) {
	svc, _ := newTestService(t)

	entry, err := svc.TodayEntry(context.Background(), 9, "COW001")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestUpsertMergesPatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.Upsert(ctx, d, 1, "COW001", models.CowTypeDry, models.LaneLogPatch{EveningYieldL: models.Float(2)})
	require.NoError(t, err)
	entry, err := svc.Upsert(ctx, d, 1, "COW001", models.CowTypeNormal, models.LaneLogPatch{FeedGivenKg: models.Float(1)})
	require.NoError(t, err)

	assert.Equal(t, models.CowTypeDry, entry.CowType)
	assert.Nil(t, entry.MorningYieldL)
	assert.InDelta(t, 2.0, models.Value(entry.TotalYieldL), 1e-9)
	assert.InDelta(t, 1.0, models.Value(entry.FeedGivenKg), 1e-9)
}
