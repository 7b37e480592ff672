package services

import (
	"errors"
	"path/filepath"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssetService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAssetService(db *gorm.DB, cfg *config.Config) *AssetService {
	return &AssetService{db: db, cfg: cfg}
}

func (s *AssetService) GetByID(id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("asset not found")
		}
		return nil, err
	}
	return &asset, nil
}

func (s *AssetService) GetAbsolutePath(asset *models.Asset) string {
	return filepath.Join(s.cfg.LocalAssetsPath, filepath.FromSlash(asset.Key))
}

// BucketFor returns the media bucket an asset kind is stored in
func (s *AssetService) BucketFor(kind models.AssetKind) string {
	if kind == models.AssetKindAudio {
		return s.cfg.MediaAudioBucket
	}
	return s.cfg.MediaImagesBucket
}

// List returns a page of asset records, optionally filtered by kind
func (s *AssetService) List(kind string, page, limit int) ([]*models.Asset, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}

	query := s.db.Model(&models.Asset{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var assets []*models.Asset
	err := query.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&assets).Error
	return assets, total, err
}

// KnownKeys returns every storage key recorded for a kind, used to detect
// orphaned bucket objects
func (s *AssetService) KnownKeys(kind models.AssetKind) (map[string]bool, error) {
	var keys []string
	if err := s.db.Model(&models.Asset{}).Where("kind = ?", kind).Pluck("key", &keys).Error; err != nil {
		return nil, err
	}
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	return known, nil
}

// ReferencedBy reports what still points at an asset. Deleting a referenced
// asset would leave dangling product photos or silent tracks.
func (s *AssetService) ReferencedBy(id uuid.UUID) (string, error) {
	var count int64
	if err := s.db.Model(&models.Product{}).Where("image_asset_id = ?", id).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "product", nil
	}
	if err := s.db.Model(&models.Track{}).Where("audio_asset_id = ?", id).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "track", nil
	}
	return "", nil
}

// DeleteRecord removes the asset row
func (s *AssetService) DeleteRecord(id uuid.UUID) error {
	return s.db.Delete(&models.Asset{}, "id = ?", id).Error
}
