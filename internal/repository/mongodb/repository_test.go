package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/dairysense/internal/repository"
)

func TestLaneLogFilter(t *testing.T) {
	from := time.Date(2024, 1, 4, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.Empty(t, laneLogFilter(repository.LaneLogFilter{}))

	got := laneLogFilter(repository.LaneLogFilter{CowID: "COW001", LaneNo: 2, From: from, To: to})
	assert.Equal(t, "COW001", got["cow_id"])
	assert.Equal(t, 2, got["lane_no"])

	dateRange, ok := got["date"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), dateRange["$gte"])
	assert.Equal(t, to, dateRange["$lte"])
}

func TestAggregatePipelineStages(t *testing.T) {
	pipeline := aggregatePipeline(repository.LaneLogFilter{CowID: "COW001"})
	require.Len(t, pipeline, 3)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, "$group", pipeline[1][0].Key)
	assert.Equal(t, "$sort", pipeline[2][0].Key)

	group, ok := pipeline[1][0].Value.(bson.M)
	require.True(t, ok)
	assert.Equal(t, bson.M{"$max": "$lane_no"}, group["last_lane"])
	assert.Contains(t, group, "feed_count")
	assert.Contains(t, group, "milk_count")
}
