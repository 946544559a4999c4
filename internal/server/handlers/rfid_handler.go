package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/service/rfid"
)

// PendingScans is the RFID scan cache served under /api/rfid/pending.
type PendingScans interface {
	Put(uid string, ttl time.Duration) (rfid.Scan, error)
	Get(uid string) (rfid.Scan, error)
	List() []rfid.Scan
	Remove(uid string) bool
}

// RFIDHandler lets a reader park a scan until it is linked to a cow.
type RFIDHandler struct {
	scans  PendingScans
	logger *zap.Logger
}

// NewRFIDHandler constructs the HTTP handler adapter.
func NewRFIDHandler(scans PendingScans, logger *zap.Logger) *RFIDHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RFIDHandler{scans: scans, logger: logger}
}

// Register mounts the pending-scan routes on g.
func (h *RFIDHandler) Register(g *gin.RouterGroup) {
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:rfidUid", h.Get)
	g.DELETE("/:rfidUid", h.Delete)
}

type pendingScanRequest struct {
	RFIDUID    string `json:"rfidUid"`
	TTLMinutes int    `json:"ttlMinutes"`
}

// Create parks a scan. A zero or missing ttlMinutes uses the store default.
func (h *RFIDHandler) Create(c *gin.Context) {
	var req pendingScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.TTLMinutes < 0 {
		badRequest(c, "ttlMinutes must not be negative")
		return
	}

	scan, err := h.scans.Put(req.RFIDUID, time.Duration(req.TTLMinutes)*time.Minute)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, scan)
}

// List returns the live scans, newest first.
func (h *RFIDHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.scans.List())
}

// Get returns one live scan.
func (h *RFIDHandler) Get(c *gin.Context) {
	scan, err := h.scans.Get(c.Param("rfidUid"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, scan)
}

// Delete drops a scan once it has been linked.
func (h *RFIDHandler) Delete(c *gin.Context) {
	if !h.scans.Remove(c.Param("rfidUid")) {
		respondError(c, h.logger, rfid.ErrScanNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}
