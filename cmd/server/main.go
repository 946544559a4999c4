package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/bootstrap"
	"github.com/mamadbah2/dairysense/internal/config"
	"github.com/mamadbah2/dairysense/internal/repository/sheets"
	"github.com/mamadbah2/dairysense/internal/scheduler"
	"github.com/mamadbah2/dairysense/internal/server/handlers"
	"github.com/mamadbah2/dairysense/internal/server/router"
	lanelogsvc "github.com/mamadbah2/dairysense/internal/service/lanelog"
	monitoringsvc "github.com/mamadbah2/dairysense/internal/service/monitoring"
	reportingsvc "github.com/mamadbah2/dairysense/internal/service/reporting"
	"github.com/mamadbah2/dairysense/internal/service/rfid"
	whatsappclient "github.com/mamadbah2/dairysense/pkg/clients/whatsapp"
	"github.com/mamadbah2/dairysense/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Development))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.OpenStore(ctx, cfg.Store, baseLogger)
	if err != nil {
		baseLogger.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close store", zap.Error(err))
		}
	}()

	monitoringSvc := monitoringsvc.NewService(store, baseLogger.Named("svc.monitoring"),
		monitoringsvc.WithWorkers(cfg.Monitoring.StatusWorkers))
	laneLogSvc := lanelogsvc.NewService(store, baseLogger.Named("svc.lanelog"), nil)
	pendingScans := rfid.NewPendingStore(cfg.RFID.ScanTTL, baseLogger.Named("svc.rfid"), nil)

	var exporter reportingsvc.Exporter
	if cfg.Sheets.Enabled() {
		reportSheet, err := sheets.OpenReportSheet(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to open report sheet", zap.Error(err))
		}
		exporter = sheets.NewSummaryExporter(reportSheet, cfg.Sheets.SummaryRange, baseLogger.Named("sheets.export"))
	} else {
		baseLogger.Warn("google sheets not configured, summary export disabled")
	}

	var sender reportingsvc.Sender
	if cfg.WhatsApp.Enabled() {
		sender = whatsappclient.NewClient(cfg.WhatsApp)
	} else {
		baseLogger.Warn("whatsapp alert recipient not configured, daily alerts disabled")
	}

	reportingSvc := reportingsvc.NewService(monitoringSvc, exporter, sender, cfg.WhatsApp.AlertRecipient, baseLogger.Named("svc.reporting"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, pendingScans, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	sched.Start()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(router.Handlers{
		Monitoring: handlers.NewMonitoringHandler(monitoringSvc, baseLogger.Named("handlers.monitoring")),
		LaneLog:    handlers.NewLaneLogHandler(laneLogSvc, baseLogger.Named("handlers.lanelog")),
		RFID:       handlers.NewRFIDHandler(pendingScans, baseLogger.Named("handlers.rfid")),
	}, baseLogger.Named("router"))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}
