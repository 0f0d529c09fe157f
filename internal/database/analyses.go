package database

import (
	"context"
	"fmt"
	"time"

	"reuse-atlas/internal/models"

	"gorm.io/gorm"
)

// FindActiveNear returns the first unexpired analysis whose centre lies
// strictly inside the tolerance rectangle around (lat, lng), or nil.
// The BETWEEN-style bounds let the location index prune; the ABS predicate
// is the authoritative match rule.
func (gdb *GormDB) FindActiveNear(ctx context.Context, lat, lng, tolerance float64, now time.Time) (*models.NeighborhoodAnalysis, error) {
	var rows []models.NeighborhoodAnalysis
	err := gdb.db.WithContext(ctx).
		Where("center_latitude > ? AND center_latitude < ?", lat-tolerance, lat+tolerance).
		Where("center_longitude > ? AND center_longitude < ?", lng-tolerance, lng+tolerance).
		Where("ABS(center_latitude - ?) < ? AND ABS(center_longitude - ?) < ?", lat, tolerance, lng, tolerance).
		Where("expires_at > ?", now).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query cached analysis: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateAnalysis inserts a new analysis row
func (gdb *GormDB) CreateAnalysis(ctx context.Context, a *models.NeighborhoodAnalysis) error {
	if err := gdb.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// CountAnalyses returns fresh and expired analysis counts at now
func (gdb *GormDB) CountAnalyses(ctx context.Context, now time.Time) (fresh, expired int64, err error) {
	db := gdb.db.WithContext(ctx).Model(&models.NeighborhoodAnalysis{})
	if err = db.Session(&gorm.Session{}).Where("expires_at > ?", now).Count(&fresh).Error; err != nil {
		return 0, 0, err
	}
	if err = db.Session(&gorm.Session{}).Where("expires_at <= ?", now).Count(&expired).Error; err != nil {
		return 0, 0, err
	}
	return fresh, expired, nil
}

// unreferencedAnalysis keeps recommendation provenance intact: an analysis
// cited by any recommendation is never purged.
const unreferencedAnalysis = `NOT EXISTS (
	SELECT 1 FROM reuse_recommendations r
	WHERE r.analysis_id = neighborhood_analyses.id
)`

// FindPurgeableAnalyses returns up to limit analyses that expired before
// cutoff and are not referenced by a recommendation, oldest first
func (gdb *GormDB) FindPurgeableAnalyses(ctx context.Context, cutoff time.Time, limit int) ([]models.NeighborhoodAnalysis, error) {
	var rows []models.NeighborhoodAnalysis
	err := gdb.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Where(unreferencedAnalysis).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find purgeable analyses: %w", err)
	}
	return rows, nil
}

// PurgeAnalysis deletes one analysis and writes its purge log in a single
// transaction. The reference check is repeated inside the transaction so a
// recommendation created since the scan keeps its analysis.
func (gdb *GormDB) PurgeAnalysis(ctx context.Context, a *models.NeighborhoodAnalysis, reason string) error {
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", a.ID).Where(unreferencedAnalysis).Delete(&models.NeighborhoodAnalysis{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete analysis %s: %w", a.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("analysis %s is referenced or already gone", a.ID)
		}

		entry := models.AnalysisPurgeLog{
			AnalysisID:      a.ID,
			CenterLatitude:  a.CenterLatitude,
			CenterLongitude: a.CenterLongitude,
			ExpiredAt:       a.ExpiresAt,
			Reason:          reason,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create purge log for analysis %s: %w", a.ID, err)
		}
		return nil
	})
}

// RecentPurgeLogs returns the newest purge log entries
func (gdb *GormDB) RecentPurgeLogs(ctx context.Context, limit int) ([]models.AnalysisPurgeLog, error) {
	var logs []models.AnalysisPurgeLog
	err := gdb.db.WithContext(ctx).Order("purged_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}

// PurgeLogCounts returns purge log totals grouped by reason
func (gdb *GormDB) PurgeLogCounts(ctx context.Context) (map[string]int64, error) {
	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := gdb.db.WithContext(ctx).Model(&models.AnalysisPurgeLog{}).
		Select("reason, count(*) as count").
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(reasonCounts))
	for _, rc := range reasonCounts {
		counts[rc.Reason] = rc.Count
	}
	return counts, nil
}
