package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"reuse-atlas/internal/apperrors"
	"reuse-atlas/internal/cleanup"
	"reuse-atlas/internal/config"
	"reuse-atlas/internal/models"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ErrJobRunning is returned when a manual trigger overlaps a running job
var ErrJobRunning = errors.New("job already running")

// Purger removes long-expired analyses
type Purger interface {
	Purge(ctx context.Context, cfg cleanup.CleanupConfig) (*cleanup.CleanupResult, error)
}

// Reindexer pushes the archive into the search index
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// Scheduler handles scheduled housekeeping tasks
type Scheduler struct {
	cron      *cron.Cron
	purger    Purger
	reindexer Reindexer
	config    *config.Config
	logger    *zap.Logger
	isRunning bool

	cleanupMu sync.Mutex
	reindexMu sync.Mutex
}

// NewScheduler creates a new scheduler. reindexer may be nil when search is
// not configured.
func NewScheduler(purger Purger, reindexer Reindexer, cfg *config.Config, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		purger:    purger,
		reindexer: reindexer,
		config:    cfg,
		logger:    logger.Named("scheduler"),
	}
}

// Start registers the enabled jobs and starts the scheduler
func (s *Scheduler) Start() error {
	sc := s.config.Scheduler
	jobs := 0

	if sc.CleanupEnabled {
		spec := s.parseDailyRunTime(sc.CleanupTime)
		if _, err := s.cron.AddFunc(spec, s.scheduledCleanup); err != nil {
			return fmt.Errorf("schedule cleanup: %w", err)
		}
		s.logger.Info("cleanup job scheduled", zap.String("at", sc.CleanupTime), zap.String("cron", spec))
		jobs++
	}

	if sc.ReindexEnabled {
		if s.reindexer == nil {
			s.logger.Warn("reindex job enabled but search is not configured, skipping")
		} else {
			spec := s.parseDailyRunTime(sc.ReindexTime)
			if _, err := s.cron.AddFunc(spec, s.scheduledReindex); err != nil {
				return fmt.Errorf("schedule reindex: %w", err)
			}
			s.logger.Info("reindex job scheduled", zap.String("at", sc.ReindexTime), zap.String("cron", spec))
			jobs++
		}
	}

	if jobs == 0 {
		s.logger.Info("no scheduled jobs enabled")
		return nil
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("scheduler stopped")
	}
}

// Entries returns the number of registered cron jobs
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) scheduledCleanup() {
	s.logger.Info("starting scheduled cleanup")
	result, err := s.RunCleanupNow(context.Background(), s.cleanupConfig(models.PurgeReasonRetention))
	if err != nil {
		s.logger.Error("scheduled cleanup failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled cleanup completed",
		zap.Int("deleted", result.DeletedCount),
		zap.Int("errors", result.ErrorCount))
}

func (s *Scheduler) scheduledReindex() {
	s.logger.Info("starting scheduled reindex")
	n, err := s.RunReindexNow(context.Background())
	if err != nil {
		s.logger.Error("scheduled reindex failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled reindex completed", zap.Int("entries", n))
}

// cleanupConfig builds a purge configuration from the loaded config
func (s *Scheduler) cleanupConfig(reason string) cleanup.CleanupConfig {
	return cleanup.CleanupConfig{
		RetentionDays:    s.config.Cleanup.RetentionDays,
		MaxDeletionCount: s.config.Cleanup.MaxDeletionCount,
		DryRun:           s.config.Cleanup.DryRun,
		Reason:           reason,
	}
}

// ManualCleanupConfig returns the configured purge settings tagged as a
// manual run
func (s *Scheduler) ManualCleanupConfig() cleanup.CleanupConfig {
	return s.cleanupConfig(models.PurgeReasonManual)
}

// RunCleanupNow immediately executes a purge (for manual trigger)
func (s *Scheduler) RunCleanupNow(ctx context.Context, cfg cleanup.CleanupConfig) (*cleanup.CleanupResult, error) {
	if !s.cleanupMu.TryLock() {
		return nil, ErrJobRunning
	}
	defer s.cleanupMu.Unlock()
	return s.purger.Purge(ctx, cfg)
}

// RunReindexNow immediately pushes the archive into the search index
func (s *Scheduler) RunReindexNow(ctx context.Context) (int, error) {
	if s.reindexer == nil {
		return 0, apperrors.ErrSearchUnavailable
	}
	if !s.reindexMu.TryLock() {
		return 0, ErrJobRunning
	}
	defer s.reindexMu.Unlock()
	return s.reindexer.Reindex(ctx)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "02:00" -> "0 2 * * *" (run at 2:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	s.logger.Warn("failed to parse run time, using default 03:00", zap.String("time", timeStr))
	return "0 3 * * *"
}
