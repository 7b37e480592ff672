package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetVisibility string

const (
	AssetVisibilityPrivate AssetVisibility = "private"
	AssetVisibilityPublic  AssetVisibility = "public"
)

type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindAudio AssetKind = "audio"
)

// Asset represents a stored file: a product photo or a radio track's audio.
type Asset struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    *uuid.UUID      `gorm:"type:uuid" json:"owner_id,omitempty"`
	Kind       AssetKind       `gorm:"size:16;default:image" json:"kind"`
	Key        string          `gorm:"size:512;uniqueIndex" json:"key"` // storage path
	Filename   string          `gorm:"size:255" json:"filename"`
	MimeType   string          `gorm:"size:120" json:"mime_type"`
	SizeBytes  int64           `json:"size_bytes"`
	Checksum   string          `gorm:"size:128" json:"checksum"`
	Visibility AssetVisibility `gorm:"size:16;default:private" json:"visibility"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
