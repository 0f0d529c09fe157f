package models

import (
	"time"

	"github.com/google/uuid"
)

// AnalysisPurgeLog records a physically deleted neighborhood analysis
type AnalysisPurgeLog struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AnalysisID      uuid.UUID `gorm:"type:char(36);not null;index" json:"analysisId"`
	CenterLatitude  float64   `json:"centerLatitude"`
	CenterLongitude float64   `json:"centerLongitude"`
	ExpiredAt       time.Time `gorm:"not null" json:"expiredAt"`
	PurgedAt        time.Time `gorm:"not null;autoCreateTime;index" json:"purgedAt"`
	Reason          string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (AnalysisPurgeLog) TableName() string {
	return "analysis_purge_logs"
}

// PurgeReason constants
const (
	PurgeReasonRetention = "retention_expired"
	PurgeReasonManual    = "manual_purge"
)
