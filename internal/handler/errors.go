package handler

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"escrowhub/internal/model"
	"escrowhub/pkg/logger"
)

// ContextKeyAddress is where the auth middleware stores the caller's address.
const ContextKeyAddress = "address"

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, model.ErrInvalidState), errors.Is(err, model.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, model.ErrDeadlinePassed), errors.Is(err, model.ErrDeadlineNotReached):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrTransferFailed):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status its kind maps to. Internal errors are not echoed.
func respondError(c *gin.Context, log *zap.Logger, op string, err error) {
	status := statusFor(err)
	l := logger.WithTrace(c.Request.Context(), log)
	if status == http.StatusInternalServerError {
		l.Error(op+": internal error", zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	l.Warn(op+": rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, gin.H{"error": err.Error()})
}

func callerAddress(c *gin.Context) string {
	return c.GetString(ContextKeyAddress)
}

// secondsToDuration rejects non-positive counts and counts that overflow time.Duration.
func secondsToDuration(n int64) (time.Duration, bool) {
	if n <= 0 || n > math.MaxInt64/int64(time.Second) {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}
