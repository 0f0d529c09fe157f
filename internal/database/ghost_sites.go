package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reuse-atlas/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetGhostSite returns the ghost site with id, or nil when none exists
func (gdb *GormDB) GetGhostSite(ctx context.Context, id uuid.UUID) (*models.GhostSite, error) {
	var site models.GhostSite
	err := gdb.db.WithContext(ctx).Where("id = ?", id).First(&site).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ghost site %s: %w", id, err)
	}
	return &site, nil
}

// ListGhostSites browses ghost sites, most likely abandoned first
func (gdb *GormDB) ListGhostSites(ctx context.Context, f models.GhostSiteFilters) ([]models.GhostSite, error) {
	q := gdb.db.WithContext(ctx).Model(&models.GhostSite{})

	if f.City != "" {
		q = q.Where("LOWER(city) LIKE ?", containsPattern(f.City))
	}
	if f.Country != "" {
		q = q.Where("LOWER(country) LIKE ?", containsPattern(f.Country))
	}
	if f.MinProbability != nil {
		q = q.Where("abandonment_probability >= ?", *f.MinProbability)
	}
	if f.MinLotSize != nil {
		q = q.Where("lot_size_sqm >= ?", *f.MinLotSize)
	}

	sites := make([]models.GhostSite, 0)
	err := q.Order("abandonment_probability DESC").
		Order("created_at DESC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&sites).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ghost sites: %w", err)
	}
	return sites, nil
}

// CountGhostSites returns the number of ghost sites
func (gdb *GormDB) CountGhostSites(ctx context.Context) (int64, error) {
	var n int64
	err := gdb.db.WithContext(ctx).Model(&models.GhostSite{}).Count(&n).Error
	return n, err
}

// containsPattern builds a case-insensitive substring LIKE pattern to be
// compared against LOWER(column)
func containsPattern(s string) string {
	return "%" + strings.ToLower(s) + "%"
}
