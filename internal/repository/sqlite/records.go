package sqlite

import (
	"time"

	"github.com/mamadbah2/dairysense/internal/domain/models"
)

// Dates are stored as YYYY-MM-DD text so that range filters compare lexically.

type laneLogRecord struct {
	ID            uint   `gorm:"primaryKey"`
	Date          string `gorm:"size:10;not null;uniqueIndex:idx_daily_lane_log_key,priority:1;index:idx_daily_lane_log_cow_date,priority:2"`
	LaneNo        int    `gorm:"not null;uniqueIndex:idx_daily_lane_log_key,priority:2"`
	CowID         string `gorm:"size:255;not null;uniqueIndex:idx_daily_lane_log_key,priority:3;index:idx_daily_lane_log_cow_date,priority:1"`
	CowType       string `gorm:"size:50"`
	FeedGivenKg   *float64
	MorningYieldL *float64
	EveningYieldL *float64
	TotalYieldL   *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (laneLogRecord) TableName() string { return "daily_lane_log" }

func newLaneLogRecord(e models.LaneLogEntry) laneLogRecord {
	return laneLogRecord{
		Date:          models.FormatDate(e.Date),
		LaneNo:        e.LaneNo,
		CowID:         e.CowID,
		CowType:       string(e.CowType),
		FeedGivenKg:   e.FeedGivenKg,
		MorningYieldL: e.MorningYieldL,
		EveningYieldL: e.EveningYieldL,
		TotalYieldL:   e.TotalYieldL,
	}
}

func (r laneLogRecord) toModel() models.LaneLogEntry {
	date, _ := models.ParseDate(r.Date)
	return models.LaneLogEntry{
		Date:          date,
		LaneNo:        r.LaneNo,
		CowID:         r.CowID,
		CowType:       models.CowType(r.CowType),
		FeedGivenKg:   r.FeedGivenKg,
		MorningYieldL: r.MorningYieldL,
		EveningYieldL: r.EveningYieldL,
		TotalYieldL:   r.TotalYieldL,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type cowRecord struct {
	ID        uint    `gorm:"primaryKey"`
	CowID     string  `gorm:"size:255;not null;uniqueIndex"`
	RFIDUID   *string `gorm:"column:rfid_uid;size:255;uniqueIndex"`
	Name      string  `gorm:"size:255"`
	CowType   string  `gorm:"size:50"`
	Status    string  `gorm:"size:50;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (cowRecord) TableName() string { return "cows" }

func (r cowRecord) toModel() models.Cow {
	return models.Cow{
		CowID:     r.CowID,
		RFIDUID:   models.StringValue(r.RFIDUID),
		Name:      r.Name,
		CowType:   models.CowType(r.CowType),
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
	}
}

type cowMetricRecord struct {
	ID          uint   `gorm:"primaryKey"`
	CowID       string `gorm:"size:255;not null;uniqueIndex:idx_daily_cow_metrics_key,priority:1"`
	Date        string `gorm:"size:10;not null;uniqueIndex:idx_daily_cow_metrics_key,priority:2;index"`
	FeedGivenKg float64
	MilkYieldL  float64 `gorm:"column:milk_yield_litre"`
	LaneID      string  `gorm:"size:50"`
	CreatedAt   time.Time
}

func (cowMetricRecord) TableName() string { return "daily_cow_metrics" }

func (r cowMetricRecord) toModel() models.DailyCowMetric {
	date, _ := models.ParseDate(r.Date)
	return models.DailyCowMetric{
		CowID:       r.CowID,
		Date:        date,
		FeedGivenKg: r.FeedGivenKg,
		MilkYieldL:  r.MilkYieldL,
		LaneID:      r.LaneID,
		CreatedAt:   r.CreatedAt,
	}
}

type cowStatusRecord struct {
	ID        uint    `gorm:"primaryKey"`
	CowID     string  `gorm:"size:255;not null;uniqueIndex:idx_cow_daily_status_key,priority:1"`
	Date      string  `gorm:"size:10;not null;uniqueIndex:idx_cow_daily_status_key,priority:2;index"`
	Status    string  `gorm:"size:20;not null;check:status IN ('NORMAL', 'SLIGHT_DROP', 'ATTENTION')"`
	Reason    *string `gorm:"type:text"`
	UpdatedAt time.Time
}

func (cowStatusRecord) TableName() string { return "cow_daily_status" }

func (r cowStatusRecord) toModel() models.CowDailyStatus {
	date, _ := models.ParseDate(r.Date)
	return models.CowDailyStatus{
		CowID:     r.CowID,
		Date:      date,
		Status:    models.StatusCode(r.Status),
		Reason:    r.Reason,
		UpdatedAt: r.UpdatedAt,
	}
}

type farmSummaryRecord struct {
	ID          uint   `gorm:"primaryKey"`
	Date        string `gorm:"size:10;not null;uniqueIndex"`
	TotalFeedKg float64
	TotalMilkL  float64 `gorm:"column:total_milk_litre"`
	BestCowID   *string `gorm:"size:255"`
	LowestCowID *string `gorm:"size:255"`
	CreatedAt   time.Time
}

func (farmSummaryRecord) TableName() string { return "daily_farm_summary" }

func (r farmSummaryRecord) toModel() models.DailyFarmSummary {
	date, _ := models.ParseDate(r.Date)
	return models.DailyFarmSummary{
		Date:        date,
		TotalFeedKg: r.TotalFeedKg,
		TotalMilkL:  r.TotalMilkL,
		BestCowID:   r.BestCowID,
		LowestCowID: r.LowestCowID,
		CreatedAt:   r.CreatedAt,
	}
}
