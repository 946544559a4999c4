package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/service/monitoring"
)

// MonitoringService is the query facade served under /api/monitoring.
type MonitoringService interface {
	ResolveDate(value string) (time.Time, error)
	Dashboard(ctx context.Context, date time.Time) (models.Dashboard, error)
	CowsList(ctx context.Context, date time.Time) ([]models.CowListItem, error)
	CowDetail(ctx context.Context, cowID string, date time.Time) (models.CowDetail, error)
	DailySummary(ctx context.Context, date time.Time) (models.SummaryView, error)
	HistoryLog(ctx context.Context, from, to time.Time) ([]models.HistoryRow, error)
}

// MonitoringHandler exposes the monitoring views over HTTP.
type MonitoringHandler struct {
	svc    MonitoringService
	logger *zap.Logger
}

// NewMonitoringHandler constructs the HTTP handler adapter.
func NewMonitoringHandler(svc MonitoringService, logger *zap.Logger) *MonitoringHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MonitoringHandler{svc: svc, logger: logger}
}

// Register mounts the monitoring routes on g.
func (h *MonitoringHandler) Register(g *gin.RouterGroup) {
	g.GET("/dashboard", h.Dashboard)
	g.GET("/cows", h.Cows)
	g.GET("/cows/:cowId", h.CowDetail)
	g.GET("/summary", h.Summary)
	g.GET("/history", h.History)
}

// Dashboard serves the farm overview; date defaults to today.
func (h *MonitoringHandler) Dashboard(c *gin.Context) {
	date, err := h.svc.ResolveDate(c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	data, err := h.svc.Dashboard(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

// Cows serves the per-cow list of a day.
func (h *MonitoringHandler) Cows(c *gin.Context) {
	date, err := h.svc.ResolveDate(c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cows, err := h.svc.CowsList(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cows)
}

// CowDetail serves one cow's drill-down.
func (h *MonitoringHandler) CowDetail(c *gin.Context) {
	date, err := h.svc.ResolveDate(c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	detail, err := h.svc.CowDetail(c.Request.Context(), c.Param("cowId"), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Summary serves the persisted farm summary; date is mandatory.
func (h *MonitoringHandler) Summary(c *gin.Context) {
	date, err := monitoring.RequireDate(c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	summary, err := h.svc.DailySummary(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// History serves per-day per-cow totals between from and to.
func (h *MonitoringHandler) History(c *gin.Context) {
	from, err := monitoring.RequireDate(c.Query("from"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	to, err := monitoring.RequireDate(c.Query("to"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	rows, err := h.svc.HistoryLog(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
