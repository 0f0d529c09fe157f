package cleanup

import (
	"context"
	"fmt"
	"time"

	"reuse-atlas/internal/models"

	"go.uber.org/zap"
)

// Store is the persistence the purge needs
type Store interface {
	FindPurgeableAnalyses(ctx context.Context, cutoff time.Time, limit int) ([]models.NeighborhoodAnalysis, error)
	PurgeAnalysis(ctx context.Context, a *models.NeighborhoodAnalysis, reason string) error
	CountAnalyses(ctx context.Context, now time.Time) (fresh, expired int64, err error)
	RecentPurgeLogs(ctx context.Context, limit int) ([]models.AnalysisPurgeLog, error)
	PurgeLogCounts(ctx context.Context) (map[string]int64, error)
}

// Service handles physical deletion of long-expired neighborhood analyses.
// Expired rows are already invisible to cache lookups; purging only reclaims
// space.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a new cleanup service
func NewService(store Store, logger *zap.Logger) *Service {
	return &Service{store: store, logger: logger.Named("cleanup"), now: func() time.Time { return time.Now().UTC() }}
}

// WithClock replaces the wall clock, for tests
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CleanupConfig holds configuration for cleanup operations
type CleanupConfig struct {
	RetentionDays    int    // Days after expiry before an analysis is physically deleted (default: 90)
	MaxDeletionCount int    // Maximum number of analyses to delete in one run (safety limit)
	DryRun           bool   // If true, only log what would be deleted
	Reason           string // Recorded on each purge log entry
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		RetentionDays:    90,
		MaxDeletionCount: 10000,
		DryRun:           false,
		Reason:           models.PurgeReasonRetention,
	}
}

// CleanupResult holds the result of a cleanup operation
type CleanupResult struct {
	TargetCount     int       `json:"targetCount"`
	DeletedCount    int       `json:"deletedCount"`
	ErrorCount      int       `json:"errorCount"`
	DryRun          bool      `json:"dryRun"`
	Cutoff          time.Time `json:"cutoff"`
	ExecutedAt      time.Time `json:"executedAt"`
	DeletedAnalyses []string  `json:"deletedAnalyses"`
	Errors          []string  `json:"errors,omitempty"`
}

// Cutoff returns the expiry instant before which analyses are purgeable
func (s *Service) Cutoff(retentionDays int) time.Time {
	return s.now().AddDate(0, 0, -retentionDays)
}

// FindPurgeable finds analyses that are eligible for physical deletion:
// expired more than retentionDays ago and not cited by any recommendation.
// At most limit rows are returned.
func (s *Service) FindPurgeable(ctx context.Context, retentionDays, limit int) ([]models.NeighborhoodAnalysis, error) {
	cutoff := s.Cutoff(retentionDays)
	rows, err := s.store.FindPurgeableAnalyses(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}
	s.logger.Info("found purgeable analyses",
		zap.Int("count", len(rows)),
		zap.String("expired_before", cutoff.Format("2006-01-02")))
	return rows, nil
}

// Purge performs physical deletion of long-expired analyses
func (s *Service) Purge(ctx context.Context, cfg CleanupConfig) (*CleanupResult, error) {
	if cfg.Reason == "" {
		cfg.Reason = models.PurgeReasonRetention
	}
	result := &CleanupResult{
		DryRun:          cfg.DryRun,
		Cutoff:          s.Cutoff(cfg.RetentionDays),
		ExecutedAt:      s.now(),
		DeletedAnalyses: []string{},
	}

	// One extra row tells us the cap would be exceeded
	candidates, err := s.FindPurgeable(ctx, cfg.RetentionDays, cfg.MaxDeletionCount+1)
	if err != nil {
		return nil, err
	}
	result.TargetCount = len(candidates)

	if result.TargetCount == 0 {
		s.logger.Info("no expired analyses found for deletion")
		return result, nil
	}

	if result.TargetCount > cfg.MaxDeletionCount {
		return nil, fmt.Errorf("safety check failed: more than %d analyses eligible for deletion", cfg.MaxDeletionCount)
	}

	s.logger.Info("starting cleanup",
		zap.Int("targets", result.TargetCount),
		zap.Int("retention_days", cfg.RetentionDays),
		zap.Bool("dry_run", cfg.DryRun))

	for i := range candidates {
		a := &candidates[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if cfg.DryRun {
			s.logger.Info("[DRY-RUN] would delete analysis",
				zap.String("analysis_id", a.ID.String()),
				zap.Time("expired_at", a.ExpiresAt))
			result.DeletedAnalyses = append(result.DeletedAnalyses, a.ID.String())
			result.DeletedCount++
			continue
		}

		if err := s.store.PurgeAnalysis(ctx, a, cfg.Reason); err != nil {
			s.logger.Error("failed to purge analysis", zap.String("analysis_id", a.ID.String()), zap.Error(err))
			result.Errors = append(result.Errors, err.Error())
			result.ErrorCount++
			continue
		}

		result.DeletedAnalyses = append(result.DeletedAnalyses, a.ID.String())
		result.DeletedCount++
	}

	s.logger.Info("cleanup completed",
		zap.Int("deleted", result.DeletedCount),
		zap.Int("targets", result.TargetCount),
		zap.Int("errors", result.ErrorCount),
		zap.Bool("dry_run", cfg.DryRun))

	return result, nil
}

// Stats returns statistics about cached and purged analyses
func (s *Service) Stats(ctx context.Context, retentionDays int) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	fresh, expired, err := s.store.CountAnalyses(ctx, s.now())
	if err != nil {
		return nil, err
	}
	stats["freshAnalyses"] = fresh
	stats["expiredAnalyses"] = expired

	byReason, err := s.store.PurgeLogCounts(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range byReason {
		total += n
	}
	stats["totalPurged"] = total
	stats["purgedByReason"] = byReason

	// Capped count; an exact figure would need a separate COUNT query
	ready, err := s.store.FindPurgeableAnalyses(ctx, s.Cutoff(retentionDays), statsScanLimit)
	if err != nil {
		return nil, err
	}
	stats["readyForPurge"] = len(ready)

	return stats, nil
}

const statsScanLimit = 1000

// RecentLogs returns recent purge log entries
func (s *Service) RecentLogs(ctx context.Context, limit int) ([]models.AnalysisPurgeLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.store.RecentPurgeLogs(ctx, limit)
}
