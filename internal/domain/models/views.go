package models

// Dashboard is the farm-wide overview for one day.
type Dashboard struct {
	Date           string  `json:"date"`
	TotalCows      int     `json:"totalCows"`
	TotalMilk      float64 `json:"totalMilk"`
	TotalFeed      float64 `json:"totalFeed"`
	YieldFeedRatio float64 `json:"yieldFeedRatio"`
	LowYieldCount  int     `json:"lowYieldCount"`
}

// CowListItem is one row of the monitoring cow list.
type CowListItem struct {
	CowID     string     `json:"cowId"`
	TodayMilk float64    `json:"todayMilk"`
	TodayFeed float64    `json:"todayFeed"`
	Status    StatusCode `json:"status"`
}

// DayValues is the milk and feed of a single day.
type DayValues struct {
	Milk float64 `json:"milk"`
	Feed float64 `json:"feed"`
}

// DailyPoint is a dated milk/feed sample used by history charts.
type DailyPoint struct {
	Date string  `json:"date"`
	Milk float64 `json:"milk"`
	Feed float64 `json:"feed"`
}

// YieldPoint is a dated milk-only sample used by the yield trend chart.
type YieldPoint struct {
	Date string  `json:"date"`
	Milk float64 `json:"milk"`
}

// CowDetail is the per-cow drill-down view.
type CowDetail struct {
	CowID               string       `json:"cowId"`
	TagID               string       `json:"tagId"`
	Today               DayValues    `json:"today"`
	SevenDayAverage     float64      `json:"sevenDayAverage"`
	SevenDayAverageFeed float64      `json:"sevenDayAverageFeed"`
	SevenDayHistory     []DailyPoint `json:"sevenDayHistory"`
	YieldTrend          []YieldPoint `json:"yieldTrend"`
}

// SummaryView is the API shape of a persisted farm summary.
type SummaryView struct {
	Date        string  `json:"date"`
	TotalFeed   float64 `json:"totalFeed"`
	TotalMilk   float64 `json:"totalMilk"`
	BestCowID   *string `json:"bestCowId"`
	LowestCowID *string `json:"lowestCowId"`
}

// HistoryRow is one (date, cow) line of the history log.
type HistoryRow struct {
	Date  string  `json:"date"`
	CowID string  `json:"cowId"`
	Feed  float64 `json:"feed"`
	Milk  float64 `json:"milk"`
	Lane  string  `json:"lane"`
}
