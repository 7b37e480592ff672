package services

import (
	"errors"
	"fmt"

	"github.com/essenza/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService struct {
	db *gorm.DB
}

func NewProductService(db *gorm.DB) *ProductService {
	return &ProductService{db: db}
}

// GetActiveProducts returns the public catalog, newest first.
func (s *ProductService) GetActiveProducts() ([]*models.Product, error) {
	var products []*models.Product
	err := s.db.Where("is_active = ?", true).
		Order("created_at DESC").
		Preload("ImageAsset").
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetAllProducts returns the full catalog for the admin panel.
func (s *ProductService) GetAllProducts() ([]*models.Product, error) {
	var products []*models.Product
	err := s.db.Order("created_at DESC").Preload("ImageAsset").Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.Preload("ImageAsset").First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, err
	}
	return &product, nil
}

// CreateProduct validates and stores a new product
func (s *ProductService) CreateProduct(product *models.Product) error {
	if product.Name == "" {
		return errors.New("name is required")
	}
	if product.PriceCents <= 0 {
		return errors.New("price must be greater than 0")
	}
	if product.StockCount < 0 {
		return errors.New("stock cannot be negative")
	}
	if product.VolumeML <= 0 {
		product.VolumeML = 50
	}
	return s.db.Create(product).Error
}

// UpdateProduct applies changes to an existing product
func (s *ProductService) UpdateProduct(productID uuid.UUID, updates map[string]interface{}) (*models.Product, error) {
	var product models.Product
	if err := s.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("product not found")
		}
		return nil, err
	}

	if price, ok := updates["price_cents"].(int64); ok && price <= 0 {
		return nil, errors.New("price must be greater than 0")
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deactivates a product rather than deleting it, so past
// order lines keep their reference.
func (s *ProductService) DeleteProduct(productID uuid.UUID) error {
	result := s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	return nil
}

// AttachImage links an uploaded asset to a product
func (s *ProductService) AttachImage(productID, assetID uuid.UUID) error {
	result := s.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("image_asset_id", assetID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("product not found")
	}
	return nil
}

// AdjustStock applies a delta to the stock count inside a transaction,
// failing if it would go negative.
func (s *ProductService) AdjustStock(tx *gorm.DB, productID uuid.UUID, delta int) error {
	if tx == nil {
		tx = s.db
	}
	result := tx.Model(&models.Product{}).
		Where("id = ? AND stock_count + ? >= 0", productID, delta).
		Update("stock_count", gorm.Expr("stock_count + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("insufficient stock for product %s", productID)
	}
	return nil
}
