package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefaultRadiusMeters is the catchment radius used when a request omits one
const DefaultRadiusMeters = 800

// PendingDiagnosis is stored on analyses created before enrichment has run
const PendingDiagnosis = "Analysis pending. Neighborhood data will be populated by the ingestion pipeline."

// NeighborhoodAnalysis is a cached, time-bounded summary of the urban and
// demographic context around a coordinate. Rows are immutable; re-analysis
// inserts a new row and expiry retires the old one.
type NeighborhoodAnalysis struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	CenterLatitude  float64   `gorm:"not null;index:idx_analyses_location,priority:1" json:"centerLatitude"`
	CenterLongitude float64   `gorm:"not null;index:idx_analyses_location,priority:2" json:"centerLongitude"`
	RadiusMeters    int       `gorm:"not null;default:800" json:"radiusMeters"`

	// Populated by the enrichment pipeline; null until then
	HealthScore         *int                        `json:"healthScore"`
	DiagnosisText       *string                     `gorm:"type:text" json:"diagnosisText"`
	PopulationCatchment *int                        `json:"populationCatchment"`
	MedianAge           *float64                    `gorm:"type:decimal(5,2)" json:"medianAge"`
	MedianIncome        *int                        `json:"medianIncome"`
	YouthPct            *float64                    `gorm:"type:decimal(5,2)" json:"youthPct"`
	ElderlyPct          *float64                    `gorm:"type:decimal(5,2)" json:"elderlyPct"`
	SolidVoidRatio      *float64                    `gorm:"type:decimal(6,3)" json:"solidVoidRatio"`
	IntersectionsPerKm2 *float64                    `gorm:"column:intersections_per_km2;type:decimal(8,2)" json:"intersectionsPerKm2"`
	MissingAmenities    datatypes.JSONSlice[string] `json:"missingAmenities"`

	ComputedAt time.Time `gorm:"not null" json:"computedAt"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expiresAt"`
}

// TableName specifies the table name
func (NeighborhoodAnalysis) TableName() string {
	return "neighborhood_analyses"
}

// IsFresh reports whether the analysis is still authoritative at now
func (a *NeighborhoodAnalysis) IsFresh(now time.Time) bool {
	return a.ExpiresAt.After(now)
}

// HasDiagnosis reports whether a non-empty diagnosis text is present
func (a *NeighborhoodAnalysis) HasDiagnosis() bool {
	return a.DiagnosisText != nil && *a.DiagnosisText != ""
}
