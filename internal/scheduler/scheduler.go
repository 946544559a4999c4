package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/config"
	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/service/reporting"
)

const reportTimeout = 2 * time.Minute

// Reporter runs the end-of-day report.
type Reporter interface {
	RunDaily(ctx context.Context, date time.Time) (reporting.Report, error)
}

// Sweeper drops expired entries and returns how many were removed.
type Sweeper interface {
	Sweep() int
}

// Scheduler manages the recurring jobs of the server.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	sweeper  Sweeper
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler registers the daily report and the RFID sweep. Schedules use
// the standard five-field cron syntax and are evaluated in cfg.Reporting.Timezone.
func NewScheduler(cfg config.Config, reporter Reporter, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	s := &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		reporter: reporter,
		sweeper:  sweeper,
		location: loc,
		now:      time.Now,
		logger:   logger,
	}

	if reporter != nil {
		if _, err := s.cron.AddFunc(cfg.Reporting.CronSchedule, s.runReport); err != nil {
			return nil, fmt.Errorf("schedule daily report %q: %w", cfg.Reporting.CronSchedule, err)
		}
	}
	if sweeper != nil {
		if _, err := s.cron.AddFunc(cfg.RFID.SweepSchedule, s.sweepScans); err != nil {
			return nil, fmt.Errorf("schedule rfid sweep %q: %w", cfg.RFID.SweepSchedule, err)
		}
	}

	return s, nil
}

// Start starts the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.Int("jobs", len(s.cron.Entries())), zap.String("timezone", s.location.String()))
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler jobs still running at shutdown")
	}
}

func (s *Scheduler) runReport() {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	date := models.DateOf(s.now().In(s.location))
	s.logger.Info("running daily report", zap.String("date", models.FormatDate(date)))
	if _, err := s.reporter.RunDaily(ctx, date); err != nil {
		s.logger.Error("daily report failed", zap.Error(err))
	}
}

func (s *Scheduler) sweepScans() {
	if removed := s.sweeper.Sweep(); removed > 0 {
		s.logger.Debug("expired rfid scans removed", zap.Int("count", removed))
	}
}
