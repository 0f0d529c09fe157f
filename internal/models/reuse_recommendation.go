package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ReuseRecommendation is one generated suggestion for a ghost site.
// Recommendations are append-only; a site accumulates history.
type ReuseRecommendation struct {
	ID          uuid.UUID  `gorm:"type:char(36);primaryKey" json:"id"`
	GhostSiteID uuid.UUID  `gorm:"type:char(36);not null;index:idx_recommendations_site,priority:1" json:"ghostSiteId"`
	AnalysisID  *uuid.UUID `gorm:"type:char(36);index" json:"analysisId"`

	SuggestedFunction string                      `gorm:"type:varchar(255);not null" json:"suggestedFunction"`
	ConfidenceScore   float64                     `gorm:"type:decimal(3,2);not null" json:"confidenceScore"`
	Rationale         string                      `gorm:"type:text;not null" json:"rationale"`
	CaseStudyIDs      datatypes.JSONSlice[string] `gorm:"column:case_study_ids" json:"caseStudyIds"`

	EstimatedCostLowPerSqm  *float64 `gorm:"type:decimal(10,2)" json:"estimatedCostLowPerSqm"`
	EstimatedCostHighPerSqm *float64 `gorm:"type:decimal(10,2)" json:"estimatedCostHighPerSqm"`

	CreatedAt time.Time `gorm:"not null;index:idx_recommendations_site,priority:2,sort:desc" json:"createdAt"`
}

// TableName specifies the table name
func (ReuseRecommendation) TableName() string {
	return "reuse_recommendations"
}
