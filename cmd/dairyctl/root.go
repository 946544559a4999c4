package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/config"
	"github.com/mamadbah2/dairysense/internal/repository"
	"github.com/mamadbah2/dairysense/internal/service/monitoring"
	"github.com/mamadbah2/dairysense/pkg/logger"
)

// storeOpener connects the configured backend.
type storeOpener func(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repository.Store, error)

// app carries what every subcommand needs once the root pre-run has executed.
type app struct {
	open    storeOpener
	envFile string
	now     func() time.Time

	cfg     *config.Config
	logger  *zap.Logger
	store   repository.Store
	monitor *monitoring.Service
}

func newRootCmd(out io.Writer, open storeOpener, now func() time.Time) *cobra.Command {
	if now == nil {
		now = time.Now
	}
	a := &app{open: open, now: now}

	rootCmd := &cobra.Command{
		Use:           "dairyctl",
		Short:         "Maintenance tasks for the dairy monitoring store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.teardown(cmd.Context())
		},
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", "", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(
		newSeedCmd(a),
		newUnseedCmd(a),
		newBackfillCmd(a),
		newSummaryCmd(a),
	)
	return rootCmd
}

func (a *app) setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	base, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	store, err := a.open(ctx, cfg.Store, base)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}

	a.cfg = cfg
	a.logger = base.Named("dairyctl")
	a.store = store
	a.monitor = monitoring.NewService(store, base.Named("svc.monitoring"),
		monitoring.WithClock(a.now),
		monitoring.WithWorkers(cfg.Monitoring.StatusWorkers))
	return nil
}

func (a *app) teardown(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.store == nil {
		return nil
	}
	return a.store.Close(ctx)
}
