package models

import "time"

// StatusCode is the three-level daily performance classification of a cow.
type StatusCode string

const (
	StatusNormal     StatusCode = "NORMAL"
	StatusSlightDrop StatusCode = "SLIGHT_DROP"
	StatusAttention  StatusCode = "ATTENTION"
)

// Valid reports whether s is one of the three known codes.
func (s StatusCode) Valid() bool {
	switch s {
	case StatusNormal, StatusSlightDrop, StatusAttention:
		return true
	}
	return false
}

// DailyCowMetric is the per-cow, per-day rollup of the lane log.
type DailyCowMetric struct {
	CowID       string    `json:"cowId" bson:"cow_id"`
	Date        time.Time `json:"date" bson:"date"`
	FeedGivenKg float64   `json:"feedGivenKg" bson:"feed_given_kg"`
	MilkYieldL  float64   `json:"milkYieldL" bson:"milk_yield_litre"`
	LaneID      string    `json:"laneId" bson:"lane_id"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// CowDailyStatus is the derived status of a cow for one day.
type CowDailyStatus struct {
	CowID     string     `json:"cowId" bson:"cow_id"`
	Date      time.Time  `json:"date" bson:"date"`
	Status    StatusCode `json:"status" bson:"status"`
	Reason    *string    `json:"reason" bson:"reason"`
	UpdatedAt time.Time  `json:"updatedAt" bson:"updated_at"`
}

// DailyFarmSummary is the farm-wide rollup of one day. CreatedAt is kept from
// the first computation so that recomputing unchanged data leaves the row as is.
type DailyFarmSummary struct {
	Date        time.Time `json:"date" bson:"date"`
	TotalFeedKg float64   `json:"totalFeedKg" bson:"total_feed_kg"`
	TotalMilkL  float64   `json:"totalMilkL" bson:"total_milk_litre"`
	BestCowID   *string   `json:"bestCowId" bson:"best_cow_id"`
	LowestCowID *string   `json:"lowestCowId" bson:"lowest_cow_id"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// String returns a pointer to s, or nil for the empty string.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, treating nil as the empty string.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
