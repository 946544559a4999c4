package lanelog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/repository"
)

// Session is a milking session of the day.
type Session string

const (
	SessionMorning Session = "morning"
	SessionEvening Session = "evening"
)

var (
	ErrInvalidInput   = errors.New("invalid lane log input")
	ErrInvalidSession = errors.New("session must be morning or evening")
	ErrNoEntryToday   = errors.New("no lane log entry today, record feed first")
)

// Store is the persistence the recording flows need.
type Store interface {
	repository.LaneLogStore
	repository.CowStore
}

// Service records feed and milk events into today's lane log.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a lane-log service. A nil clock means time.Now.
func NewService(store Store, logger *zap.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, logger: logger, now: now}
}

func (s *Service) today() time.Time {
	return models.DateOf(s.now())
}

// Upsert merges patch into the (date, lane, cow) row, creating it with
// cowType when absent.
func (s *Service) Upsert(ctx context.Context, date time.Time, laneNo int, cowID string, cowType models.CowType, patch models.LaneLogPatch) (models.LaneLogEntry, error) {
	d := models.DateOf(date)

	entry, err := s.store.FindLaneLog(ctx, d, laneNo, cowID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		entry = models.LaneLogEntry{Date: d, LaneNo: laneNo, CowID: cowID, CowType: cowType}
	case err != nil:
		return models.LaneLogEntry{}, fmt.Errorf("load lane log: %w", err)
	}

	stored, err := s.store.UpsertLaneLog(ctx, entry.Apply(patch))
	if err != nil {
		return models.LaneLogEntry{}, err
	}
	return stored, nil
}

// RecordFeed stores the feed given to a cow in a lane today. An empty cowType
// is taken from the cow master, falling back to normal.
func (s *Service) RecordFeed(ctx context.Context, laneNo int, cowID string, feedKg float64, cowType models.CowType) (models.LaneLogEntry, error) {
	cowID = strings.TrimSpace(cowID)
	switch {
	case laneNo <= 0:
		return models.LaneLogEntry{}, fmt.Errorf("%w: lane number must be positive", ErrInvalidInput)
	case cowID == "":
		return models.LaneLogEntry{}, fmt.Errorf("%w: cow id is required", ErrInvalidInput)
	case feedKg < 0:
		return models.LaneLogEntry{}, fmt.Errorf("%w: feed must not be negative", ErrInvalidInput)
	case cowType != "" && !cowType.Valid():
		return models.LaneLogEntry{}, fmt.Errorf("%w: unknown cow type %q", ErrInvalidInput, cowType)
	}

	if cowType == "" {
		resolved, err := s.lookupCowType(ctx, cowID)
		if err != nil {
			return models.LaneLogEntry{}, err
		}
		cowType = resolved
	}

	entry, err := s.Upsert(ctx, s.today(), laneNo, cowID, cowType, models.LaneLogPatch{FeedGivenKg: models.Float(feedKg)})
	if err != nil {
		return models.LaneLogEntry{}, fmt.Errorf("record feed: %w", err)
	}

	s.logger.Info("feed recorded",
		zap.Int("lane_no", laneNo),
		zap.String("cow_id", cowID),
		zap.Float64("feed_kg", feedKg),
	)
	return entry, nil
}

func (s *Service) lookupCowType(ctx context.Context, cowID string) (models.CowType, error) {
	cow, err := s.store.GetCow(ctx, cowID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.CowTypeNormal, nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup cow type: %w", err)
	}
	if !cow.CowType.Valid() {
		return models.CowTypeNormal, nil
	}
	return cow.CowType, nil
}

// RecordMilkYield sets the session yield on every row of the cow today, so a
// cow that changed lanes carries the yield on each of them.
func (s *Service) RecordMilkYield(ctx context.Context, cowID string, session Session, yieldL float64) ([]models.LaneLogEntry, error) {
	cowID = strings.TrimSpace(cowID)
	if cowID == "" {
		return nil, fmt.Errorf("%w: cow id is required", ErrInvalidInput)
	}
	if yieldL < 0 {
		return nil, fmt.Errorf("%w: yield must not be negative", ErrInvalidInput)
	}

	var patch models.LaneLogPatch
	switch session {
	case SessionMorning:
		patch.MorningYieldL = models.Float(yieldL)
	case SessionEvening:
		patch.EveningYieldL = models.Float(yieldL)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, session)
	}

	today := s.today()
	rows, err := s.store.ListLaneLogs(ctx, repository.LaneLogFilter{CowID: cowID, From: today, To: today})
	if err != nil {
		return nil, fmt.Errorf("load today's rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: cow %s", ErrNoEntryToday, cowID)
	}

	updated := make([]models.LaneLogEntry, 0, len(rows))
	for _, row := range rows {
		stored, err := s.store.UpsertLaneLog(ctx, row.Apply(patch))
		if err != nil {
			return nil, fmt.Errorf("record milk yield lane %d: %w", row.LaneNo, err)
		}
		updated = append(updated, stored)
	}

	s.logger.Info("milk yield recorded",
		zap.String("cow_id", cowID),
		zap.String("session", string(session)),
		zap.Float64("yield_l", yieldL),
		zap.Int("rows", len(updated)),
	)
	return updated, nil
}

// TodayLogs lists today's rows ordered by lane.
func (s *Service) TodayLogs(ctx context.Context) ([]models.LaneLogEntry, error) {
	rows, err := s.store.ListLaneLogs(ctx, repository.ForDay(s.today()))
	if err != nil {
		return nil, fmt.Errorf("list today's lane logs: %w", err)
	}
	return rows, nil
}

// TodayEntry returns today's row for (lane, cow), or nil when there is none.
func (s *Service) TodayEntry(ctx context.Context, laneNo int, cowID string) (*models.LaneLogEntry, error) {
	entry, err := s.store.FindLaneLog(ctx, s.today(), laneNo, cowID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find today's entry: %w", err)
	}
	return &entry, nil
}
