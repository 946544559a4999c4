package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/dairysense/internal/service/lanelog"
	"github.com/mamadbah2/dairysense/internal/service/monitoring"
	"github.com/mamadbah2/dairysense/internal/service/rfid"
)

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, monitoring.ErrInvalidDate),
		errors.Is(err, monitoring.ErrMissingDate),
		errors.Is(err, monitoring.ErrInvalidRange),
		errors.Is(err, lanelog.ErrInvalidInput),
		errors.Is(err, lanelog.ErrInvalidSession),
		errors.Is(err, rfid.ErrInvalidUID):
		return http.StatusBadRequest
	case errors.Is(err, monitoring.ErrCowNotFound),
		errors.Is(err, lanelog.ErrNoEntryToday),
		errors.Is(err, rfid.ErrScanNotFound):
		return http.StatusNotFound
	case errors.Is(err, rfid.ErrScanExpired):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
