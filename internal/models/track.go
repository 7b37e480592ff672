package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Track is one entry of the radio rotation.
type Track struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title           string    `gorm:"size:255;not null" json:"title"`
	Artist          string    `gorm:"size:255" json:"artist"`
	DurationSeconds int       `gorm:"default:0" json:"duration_seconds"`
	// YouTubeURL is the admin-entered source URL; VideoID is extracted from
	// it on save. Tracks without a VideoID play through the native player.
	YouTubeURL   string     `gorm:"size:512" json:"youtube_url,omitempty"`
	VideoID      string     `gorm:"size:16;index" json:"video_id,omitempty"`
	AudioAssetID *uuid.UUID `gorm:"type:uuid" json:"audio_asset_id,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	SortOrder    int        `gorm:"default:0;index" json:"sort_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AudioAsset *Asset `gorm:"foreignKey:AudioAssetID" json:"audio_asset,omitempty"`
}

func (t *Track) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// RadioConfigID is the fixed primary key of the singleton config row.
const RadioConfigID = 1

// RadioConfig is the station's shared broadcast anchor. Exactly one row
// exists; it is seeded on startup and only ever updated by the admin live
// toggle. The loop-start epoch advances solely on the off→on transition.
type RadioConfig struct {
	ID             int   `gorm:"primaryKey" json:"-"`
	IsLive         bool  `gorm:"default:false" json:"is_live"`
	LoopStartEpoch int64 `gorm:"default:0" json:"loop_start_epoch"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the singleton to a clearly named table.
func (RadioConfig) TableName() string {
	return "radio_config"
}
