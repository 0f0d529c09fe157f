package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/scheduler"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// respondError maps service errors onto HTTP statuses. Unexpected errors are
// logged and hidden from the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrSearchUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Full-text search is not configured"})
	case errors.Is(err, scheduler.ErrJobRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "Job already running"})
	default:
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// queryInt reads an integer query parameter, falling back to def when absent
func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidation("Invalid %s: expected an integer.", key)
	}
	return v, nil
}

// queryFloat reads an optional float query parameter
func queryFloat(c *gin.Context, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperrors.NewValidation("Invalid %s: expected a number.", key)
	}
	return &v, nil
}

// pageParams reads limit/offset with the default page size and cap applied
func pageParams(c *gin.Context) (limit, offset int, err error) {
	if limit, err = queryInt(c, "limit", defaultPageLimit); err != nil {
		return 0, 0, err
	}
	if offset, err = queryInt(c, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset, nil
}
