package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"reuse-atlas/internal/cleanup"
	"reuse-atlas/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatsStore provides the table counts shown on the admin dashboard
type StatsStore interface {
	CountGhostSites(ctx context.Context) (int64, error)
	CountArchive(ctx context.Context) (total, conversions int64, err error)
	CountRecommendations(ctx context.Context) (int64, error)
}

// CleanupReporter reports on cached and purged analyses
type CleanupReporter interface {
	Stats(ctx context.Context, retentionDays int) (map[string]interface{}, error)
	RecentLogs(ctx context.Context, limit int) ([]models.AnalysisPurgeLog, error)
}

// JobRunner runs housekeeping jobs on demand
type JobRunner interface {
	ManualCleanupConfig() cleanup.CleanupConfig
	RunCleanupNow(ctx context.Context, cfg cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
	RunReindexNow(ctx context.Context) (int, error)
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	store   StatsStore
	cleanup CleanupReporter
	jobs    JobRunner
	logger  *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store StatsStore, cleanupService CleanupReporter, jobs JobRunner, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		store:   store,
		cleanup: cleanupService,
		jobs:    jobs,
		logger:  logger.Named("admin"),
	}
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()
	stats := make(map[string]interface{})

	ghostSites, err := h.store.CountGhostSites(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats["ghostSites"] = gin.H{"total": ghostSites}

	total, conversions, err := h.store.CountArchive(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats["archive"] = gin.H{"total": total, "conversions": conversions}

	recs, err := h.store.CountRecommendations(ctx)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	stats["recommendations"] = gin.H{"total": recs}

	// Purge statistics are best effort, like the rest of the dashboard
	analyses, err := h.cleanup.Stats(ctx, h.jobs.ManualCleanupConfig().RetentionDays)
	if err != nil {
		h.logger.Warn("failed to get analysis stats", zap.Error(err))
	} else {
		stats["analyses"] = analyses
	}

	c.JSON(http.StatusOK, stats)
}

// RunCleanup purges long-expired analyses. Omitted fields fall back to the
// configured cleanup settings.
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		RetentionDays    *int  `json:"retention_days"`
		MaxDeletionCount *int  `json:"max_deletion_count"`
		DryRun           *bool `json:"dry_run"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := h.jobs.ManualCleanupConfig()
	if req.RetentionDays != nil && *req.RetentionDays >= 0 {
		cfg.RetentionDays = *req.RetentionDays
	}
	if req.MaxDeletionCount != nil && *req.MaxDeletionCount > 0 {
		cfg.MaxDeletionCount = *req.MaxDeletionCount
	}
	if req.DryRun != nil {
		cfg.DryRun = *req.DryRun
	}

	h.logger.Info("running cleanup",
		zap.Int("retention_days", cfg.RetentionDays),
		zap.Int("max_deletion_count", cfg.MaxDeletionCount),
		zap.Bool("dry_run", cfg.DryRun))

	result, err := h.jobs.RunCleanupNow(c.Request.Context(), cfg)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCleanupLogs returns recent purge log entries
func (h *AdminHandler) GetCleanupLogs(c *gin.Context) {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	logs, err := h.cleanup.RecentLogs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// ReindexArchive pushes every archive entry into the search index
func (h *AdminHandler) ReindexArchive(c *gin.Context) {
	h.logger.Info("manual archive reindex requested")

	n, err := h.jobs.RunReindexNow(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Archive reindexed",
		"indexed": n,
	})
}
