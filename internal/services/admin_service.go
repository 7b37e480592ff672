package services

import (
	"errors"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/pkg/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AdminService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewAdminService(db *gorm.DB, cfg *config.Config) *AdminService {
	return &AdminService{db: db, cfg: cfg}
}

// CreateAssetRecord stores an asset metadata record
func (s *AdminService) CreateAssetRecord(key, filename, mimeType string, size int64, checksum string, kind models.AssetKind) (*models.Asset, error) {
	visibility := models.AssetVisibilityPrivate
	if kind == models.AssetKindImage {
		visibility = models.AssetVisibilityPublic
	}
	asset := &models.Asset{
		Key:        key,
		Filename:   filename,
		MimeType:   mimeType,
		SizeBytes:  size,
		Checksum:   checksum,
		Kind:       kind,
		Visibility: visibility,
	}
	if err := s.db.Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

// CreateDefaultAdmin seeds the configured admin account on first boot
func (s *AdminService) CreateDefaultAdmin() error {
	var existing models.User
	err := s.db.Where("username = ?", s.cfg.AdminUsername).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashedPassword, err := crypto.HashPassword(s.cfg.AdminPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	return s.db.Create(&models.User{
		Username: s.cfg.AdminUsername,
		Email:    s.cfg.AdminEmail,
		Password: hashedPassword,
		Name:     "Administrator",
		IsAdmin:  true,
		IsActive: true,
	}).Error
}

// ResetUserPassword resets a user's password and returns the new one
func (s *AdminService) ResetUserPassword(userID uuid.UUID) (string, error) {
	if s.cfg == nil || !s.cfg.AdminPasswordResetEnabled {
		return "", errors.New("admin password reset disabled")
	}
	newPassword := crypto.GenerateRandomPassword(12)

	hashedPassword, err := crypto.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashedPassword)
	if result.Error != nil {
		return "", result.Error
	}

	if result.RowsAffected == 0 {
		return "", errors.New("user not found")
	}

	return newPassword, nil
}

// GetDashboardStats returns statistics for the admin dashboard
func (s *AdminService) GetDashboardStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var userCount int64
	if err := s.db.Model(&models.User{}).Where("is_admin = ?", false).Count(&userCount).Error; err != nil {
		return nil, err
	}
	stats["total_users"] = userCount

	var activeProductCount int64
	if err := s.db.Model(&models.Product{}).Where("is_active = ?", true).Count(&activeProductCount).Error; err != nil {
		return nil, err
	}
	stats["active_products"] = activeProductCount

	var paidOrderCount int64
	if err := s.db.Model(&models.Order{}).Where("status = ?", "paid").Count(&paidOrderCount).Error; err != nil {
		return nil, err
	}
	stats["orders_paid"] = paidOrderCount

	var totalRevenueCents int64
	if err := s.db.Model(&models.Order{}).Where("status = ?", "paid").Select("COALESCE(SUM(total_cents), 0)").Scan(&totalRevenueCents).Error; err != nil {
		return nil, err
	}
	stats["total_revenue_cents"] = totalRevenueCents

	var rotationCount int64
	if err := s.db.Model(&models.Track{}).Where("is_active = ?", true).Count(&rotationCount).Error; err != nil {
		return nil, err
	}
	stats["tracks_in_rotation"] = rotationCount

	var rc models.RadioConfig
	if err := s.db.First(&rc, models.RadioConfigID).Error; err == nil {
		stats["radio_live"] = rc.IsLive
	} else if errors.Is(err, gorm.ErrRecordNotFound) {
		stats["radio_live"] = false
	} else {
		return nil, err
	}

	return stats, nil
}

// GetTopSellingProducts returns the best sellers by paid quantity
func (s *AdminService) GetTopSellingProducts(limit int) ([]map[string]interface{}, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []struct {
		ProductID uuid.UUID
		Name      string
		Sold      int64
	}
	err := s.db.Model(&models.OrderItem{}).
		Select("order_items.product_id, products.name, SUM(order_items.quantity) as sold").
		Joins("JOIN products ON products.id = order_items.product_id").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.status = ?", "paid").
		Group("order_items.product_id, products.name").
		Order("sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		result = append(result, map[string]interface{}{
			"product_id": row.ProductID,
			"name":       row.Name,
			"sold":       row.Sold,
		})
	}
	return result, nil
}
