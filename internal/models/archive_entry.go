package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArchiveEntry is a verified real-world adaptive-reuse case study used as a
// precedent when recommending a new function for a ghost site.
type ArchiveEntry struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	City      string    `gorm:"type:varchar(100);not null;index" json:"city"`
	Country   string    `gorm:"type:varchar(100);not null" json:"country"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`

	TypologyTags     datatypes.JSONSlice[string] `json:"typologyTags"`
	OriginalFunction *string                     `gorm:"type:varchar(255)" json:"originalFunction,omitempty"`
	CurrentFunction  *string                     `gorm:"type:varchar(255)" json:"currentFunction,omitempty"`
	IsConversion     bool                        `gorm:"not null;default:false;index:idx_archive_conversion_activation,priority:1" json:"isConversion"`

	// Architectural metrics
	FloorAreaSqm       *float64 `gorm:"type:decimal(12,2)" json:"floorAreaSqm,omitempty"`
	PublicPrivateRatio *float64 `gorm:"type:decimal(4,3)" json:"publicPrivateRatio,omitempty"`
	FloorCount         *int     `json:"floorCount,omitempty"`
	YearBuilt          *int     `json:"yearBuilt,omitempty"`
	YearConverted      *int     `json:"yearConverted,omitempty"`

	// Success metrics
	DigitalFootprintScore *int `json:"digitalFootprintScore,omitempty"`
	ActivationScore       *int `gorm:"index:idx_archive_conversion_activation,priority:2" json:"activationScore,omitempty"`
	AnnualVisitors        *int `json:"annualVisitors,omitempty"`

	PhotoURLs  datatypes.JSONSlice[string] `gorm:"column:photo_urls" json:"photoUrls,omitempty"`
	SourceURL  *string                     `gorm:"column:source_url;type:text" json:"sourceUrl,omitempty"`
	IsVerified bool                        `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt  time.Time                   `gorm:"not null;autoCreateTime;index:idx_archive_created_at,sort:desc" json:"createdAt"`
}

// TableName specifies the table name
func (ArchiveEntry) TableName() string {
	return "archive_entries"
}
