package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/domain/models"
	"github.com/mamadbah2/dairysense/internal/service/lanelog"
)

// LaneLogService records feed and milk events for today.
type LaneLogService interface {
	RecordFeed(ctx context.Context, laneNo int, cowID string, feedKg float64, cowType models.CowType) (models.LaneLogEntry, error)
	RecordMilkYield(ctx context.Context, cowID string, session lanelog.Session, yieldL float64) ([]models.LaneLogEntry, error)
	TodayLogs(ctx context.Context) ([]models.LaneLogEntry, error)
	TodayEntry(ctx context.Context, laneNo int, cowID string) (*models.LaneLogEntry, error)
}

// LaneLogHandler serves /api/daily-lane-log.
type LaneLogHandler struct {
	svc    LaneLogService
	logger *zap.Logger
}

// NewLaneLogHandler constructs the HTTP handler adapter.
func NewLaneLogHandler(svc LaneLogService, logger *zap.Logger) *LaneLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LaneLogHandler{svc: svc, logger: logger}
}

// Register mounts the lane-log routes on g.
func (h *LaneLogHandler) Register(g *gin.RouterGroup) {
	g.POST("/feed", h.RecordFeed)
	g.POST("/milk-yield", h.RecordMilkYield)
	g.GET("/today", h.Today)
	g.GET("/entry", h.Entry)
}

type feedRequest struct {
	LaneNo  int      `json:"laneNo" binding:"required"`
	CowID   string   `json:"cowId" binding:"required"`
	FeedKg  *float64 `json:"feedKg" binding:"required"`
	CowType string   `json:"cowType"`
}

type milkYieldRequest struct {
	CowID   string   `json:"cowId" binding:"required"`
	Session string   `json:"session" binding:"required"`
	YieldL  *float64 `json:"yieldL" binding:"required"`
}

// RecordFeed stores the feed given to a cow in a lane today.
func (h *LaneLogHandler) RecordFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "laneNo, cowId, and feedKg are required")
		return
	}

	entry, err := h.svc.RecordFeed(c.Request.Context(), req.LaneNo, req.CowID, *req.FeedKg, models.CowType(req.CowType))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feed recorded successfully", "data": entry})
}

// RecordMilkYield stores a session yield on every lane row of the cow today.
func (h *LaneLogHandler) RecordMilkYield(c *gin.Context) {
	var req milkYieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "cowId, session (morning/evening), and yieldL are required")
		return
	}

	session := lanelog.Session(req.Session)
	rows, err := h.svc.RecordMilkYield(c.Request.Context(), req.CowID, session, *req.YieldL)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s yield recorded successfully", session),
		"data":    rows,
	})
}

// Today lists every lane-log row of today.
func (h *LaneLogHandler) Today(c *gin.Context) {
	logs, err := h.svc.TodayLogs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// Entry returns today's row of one (lane, cow), or null.
func (h *LaneLogHandler) Entry(c *gin.Context) {
	cowID := c.Query("cowId")
	laneNo, err := strconv.Atoi(c.Query("laneNo"))
	if err != nil || cowID == "" {
		badRequest(c, "laneNo and cowId query parameters are required")
		return
	}

	entry, err := h.svc.TodayEntry(c.Request.Context(), laneNo, cowID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entry})
}
