package models

import "time"

// CowType enumerates the feeding categories a cow can belong to.
type CowType string

const (
	CowTypeNormal   CowType = "normal"
	CowTypePregnant CowType = "pregnant"
	CowTypeDry      CowType = "dry"
)

// Valid reports whether the cow type is one of the known categories.
func (t CowType) Valid() bool {
	switch t {
	case CowTypeNormal, CowTypePregnant, CowTypeDry:
		return true
	}
	return false
}

// LaneLogEntry is one feeding/milking row of the daily lane log.
// (Date, LaneNo, CowID) is the natural key.
type LaneLogEntry struct {
	Date          time.Time `json:"date" bson:"date"`
	LaneNo        int       `json:"laneNo" bson:"lane_no"`
	CowID         string    `json:"cowId" bson:"cow_id"`
	CowType       CowType   `json:"cowType" bson:"cow_type"`
	FeedGivenKg   *float64  `json:"feedGivenKg" bson:"feed_given_kg"`
	MorningYieldL *float64  `json:"morningYieldL" bson:"morning_yield_l"`
	EveningYieldL *float64  `json:"eveningYieldL" bson:"evening_yield_l"`
	TotalYieldL   *float64  `json:"totalYieldL" bson:"total_yield_l"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updated_at"`
}

// LaneLogPatch carries the fields of a partial lane-log update. Nil fields are
// left untouched when the patch is applied.
type LaneLogPatch struct {
	FeedGivenKg   *float64
	MorningYieldL *float64
	EveningYieldL *float64
}

// Empty reports whether the patch changes nothing.
func (p LaneLogPatch) Empty() bool {
	return p.FeedGivenKg == nil && p.MorningYieldL == nil && p.EveningYieldL == nil
}

// Apply merges the patch into a copy of the entry and recomputes the total yield.
func (e LaneLogEntry) Apply(p LaneLogPatch) LaneLogEntry {
	if p.FeedGivenKg != nil {
		e.FeedGivenKg = Float(*p.FeedGivenKg)
	}
	if p.MorningYieldL != nil {
		e.MorningYieldL = Float(*p.MorningYieldL)
	}
	if p.EveningYieldL != nil {
		e.EveningYieldL = Float(*p.EveningYieldL)
	}
	e.TotalYieldL = TotalYield(e.MorningYieldL, e.EveningYieldL)
	return e
}

// TotalYield sums the two milking sessions. The result is nil only when both
// sessions are nil; a single missing session counts as zero.
func TotalYield(morning, evening *float64) *float64 {
	if morning == nil && evening == nil {
		return nil
	}
	return Float(Value(morning) + Value(evening))
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences p, treating nil as zero.
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
