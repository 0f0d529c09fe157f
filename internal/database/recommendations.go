package database

import (
	"context"
	"fmt"

	"reuse-atlas/internal/models"

	"github.com/google/uuid"
)

// CreateRecommendation appends a recommendation to a site's history
func (gdb *GormDB) CreateRecommendation(ctx context.Context, r *models.ReuseRecommendation) error {
	if err := gdb.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to insert recommendation: %w", err)
	}
	return nil
}

// ListRecommendations returns a site's recommendation history, newest first
func (gdb *GormDB) ListRecommendations(ctx context.Context, ghostSiteID uuid.UUID, limit int) ([]models.ReuseRecommendation, error) {
	recs := make([]models.ReuseRecommendation, 0)
	err := gdb.db.WithContext(ctx).
		Where("ghost_site_id = ?", ghostSiteID).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	return recs, nil
}

// CountRecommendations returns the number of stored recommendations
func (gdb *GormDB) CountRecommendations(ctx context.Context) (int64, error) {
	var n int64
	err := gdb.db.WithContext(ctx).Model(&models.ReuseRecommendation{}).Count(&n).Error
	return n, err
}
