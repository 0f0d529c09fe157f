package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// GhostSite is a structure flagged as likely abandoned. Owned by the
// marketplace; this service only reads it.
type GhostSite struct {
	ID        uuid.UUID      `gorm:"type:char(36);primaryKey" json:"id"`
	Latitude  float64        `gorm:"not null;index:idx_ghost_sites_location,priority:1" json:"latitude"`
	Longitude float64        `gorm:"not null;index:idx_ghost_sites_location,priority:2" json:"longitude"`
	Boundary  datatypes.JSON `json:"boundary,omitempty"`

	AbandonmentProbability float64    `gorm:"type:decimal(3,2);not null;index" json:"abandonmentProbability"`
	VacancySince           *time.Time `json:"vacancySince,omitempty"`
	LastKnownFunction      *string    `gorm:"type:varchar(255)" json:"lastKnownFunction,omitempty"`
	LotSizeSqm             *float64   `gorm:"type:decimal(12,2)" json:"lotSizeSqm,omitempty"`
	OwnershipType          *string    `gorm:"type:varchar(50)" json:"ownershipType,omitempty"`

	// Condition signals
	NDVIScore         *float64   `gorm:"column:ndvi_score;type:decimal(4,3)" json:"ndviScore,omitempty"`
	NightLightScore   *float64   `gorm:"type:decimal(4,3)" json:"nightLightScore,omitempty"`
	HasBoardedWindows *bool      `json:"hasBoardedWindows,omitempty"`
	LastReviewDate    *time.Time `json:"lastReviewDate,omitempty"`
	OSMStatus         *string    `gorm:"column:osm_status;type:varchar(50)" json:"osmStatus,omitempty"`

	Address    *string   `gorm:"type:text" json:"address,omitempty"`
	City       string    `gorm:"type:varchar(100);not null;index" json:"city"`
	Country    string    `gorm:"type:varchar(100);not null" json:"country"`
	IsVerified bool      `gorm:"not null;default:false" json:"isVerified"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

// TableName specifies the table name
func (GhostSite) TableName() string {
	return "ghost_sites"
}

// KnownFunction returns the last known function, or "" when unknown
func (g *GhostSite) KnownFunction() string {
	if g.LastKnownFunction == nil {
		return ""
	}
	return *g.LastKnownFunction
}
