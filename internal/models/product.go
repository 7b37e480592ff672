package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product is one perfume in the storefront catalog.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Brand       string    `gorm:"size:255" json:"brand"`
	Description string    `gorm:"type:text" json:"description"`
	// Notes is the fragrance pyramid as free text (top/heart/base).
	Notes        string     `gorm:"type:text" json:"notes,omitempty"`
	VolumeML     int        `gorm:"default:50" json:"volume_ml"`
	PriceCents   int64      `gorm:"not null" json:"price_cents"`
	StockCount   int        `gorm:"default:0" json:"stock_count"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`
	ImageAssetID *uuid.UUID `gorm:"type:uuid" json:"image_asset_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ImageAsset *Asset `gorm:"foreignKey:ImageAssetID" json:"image_asset,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// InStock reports whether at least qty units can be sold.
func (p *Product) InStock(qty int) bool {
	return p.IsActive && p.StockCount >= qty
}

type SystemSetting struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Key       string    `gorm:"uniqueIndex;not null"`
	Value     string    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s *SystemSetting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
