package database

import (
	"context"
	"fmt"

	"reuse-atlas/internal/models"
)

// activationNullsLast orders rows with an activation score before rows without one
const activationNullsLast = "CASE WHEN activation_score IS NULL THEN 1 ELSE 0 END, activation_score DESC"

// TopConversions returns up to limit conversion precedents ranked by
// activation score, unscored entries last
func (gdb *GormDB) TopConversions(ctx context.Context, limit int) ([]models.ArchiveEntry, error) {
	entries := make([]models.ArchiveEntry, 0, limit)
	err := gdb.db.WithContext(ctx).
		Where("is_conversion = ?", true).
		Order(activationNullsLast).
		Order("created_at DESC").
		Order("id ASC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query top conversions: %w", err)
	}
	return entries, nil
}

// SearchArchive browses archive entries, newest first
func (gdb *GormDB) SearchArchive(ctx context.Context, f models.ArchiveFilters) ([]models.ArchiveEntry, error) {
	q := gdb.db.WithContext(ctx).Model(&models.ArchiveEntry{})

	if f.City != "" {
		q = q.Where("LOWER(city) LIKE ?", containsPattern(f.City))
	}
	if f.Country != "" {
		q = q.Where("LOWER(country) LIKE ?", containsPattern(f.Country))
	}
	if f.Function != "" {
		pattern := containsPattern(f.Function)
		q = q.Where("(LOWER(original_function) LIKE ? OR LOWER(current_function) LIKE ?)", pattern, pattern)
	}
	if f.ConversionOnly {
		q = q.Where("is_conversion = ?", true)
	}

	entries := make([]models.ArchiveEntry, 0)
	err := q.Order("created_at DESC").
		Order("id ASC").
		Limit(f.Limit).
		Offset(f.Offset).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search archive: %w", err)
	}
	return entries, nil
}

// ArchivePage returns one page of the archive in stable id order, for bulk
// export into the search index
func (gdb *GormDB) ArchivePage(ctx context.Context, offset, limit int) ([]models.ArchiveEntry, error) {
	entries := make([]models.ArchiveEntry, 0, limit)
	err := gdb.db.WithContext(ctx).Order("id ASC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to page archive: %w", err)
	}
	return entries, nil
}

// CountArchive returns total and conversion entry counts
func (gdb *GormDB) CountArchive(ctx context.Context) (total, conversions int64, err error) {
	if err = gdb.db.WithContext(ctx).Model(&models.ArchiveEntry{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err = gdb.db.WithContext(ctx).Model(&models.ArchiveEntry{}).Where("is_conversion = ?", true).Count(&conversions).Error; err != nil {
		return 0, 0, err
	}
	return total, conversions, nil
}
