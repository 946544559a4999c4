package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRecomputesTotal(t *testing.T) {
	entry := LaneLogEntry{LaneNo: 2, CowID: "COW001", FeedGivenKg: Float(4)}

	morning := entry.Apply(LaneLogPatch{MorningYieldL: Float(6.5)})
	require.NotNil(t, morning.TotalYieldL)
	assert.Equal(t, 6.5, *morning.TotalYieldL)
	assert.Equal(t, 4.0, Value(morning.FeedGivenKg))
	assert.Nil(t, entry.MorningYieldL, "apply works on a copy")

	both := morning.Apply(LaneLogPatch{EveningYieldL: Float(3)})
	assert.Equal(t, 9.5, Value(both.TotalYieldL))

	feedOnly := LaneLogEntry{}.Apply(LaneLogPatch{FeedGivenKg: Float(5)})
	assert.Nil(t, feedOnly.TotalYieldL)
}

func TestLaneLogPatchEmpty(t *testing.T) {
	assert.True(t, LaneLogPatch{}.Empty())
	assert.False(t, LaneLogPatch{EveningYieldL: Float(0)}.Empty())
}

func TestDateHelpers(t *testing.T) {
	local := time.Date(2024, 2, 28, 23, 30, 0, 0, time.FixedZone("UTC+3", 3*3600))
	assert.Equal(t, "2024-02-28", FormatDate(DateOf(local)))
	assert.Equal(t, "2024-03-01", FormatDate(AddDays(local, 2)))

	d, err := ParseDate(" 2024-01-31 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("")
	assert.Error(t, err)
	_, err = ParseDate("31/01/2024")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	days := DaysBetween(from, to)
	require.Len(t, days, 4)
	assert.Equal(t, "2024-02-29", FormatDate(days[2]))
	assert.Equal(t, to, days[3])

	assert.Len(t, DaysBetween(to, to), 1)
	assert.Nil(t, DaysBetween(to, from))
}
