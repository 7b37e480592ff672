package services

import (
	"errors"

	"github.com/essenza/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// profileFields are the columns a customer may change on their own account
var profileFields = map[string]bool{
	"name":  true,
	"email": true,
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// UpdateUserProfile applies a customer's own profile edits, dropping any
// column outside the allowed set
func (s *UserService) UpdateUserProfile(userID uuid.UUID, updates map[string]interface{}) error {
	for key := range updates {
		if !profileFields[key] {
			delete(updates, key)
		}
	}
	if len(updates) == 0 {
		return errors.New("no valid fields to update")
	}

	result := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}

// UpdateUserActive sets is_active
func (s *UserService) UpdateUserActive(userID uuid.UUID, isActive bool) error {
	result := s.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", isActive)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("user not found")
	}
	return nil
}

// ListUsers pages through accounts, newest first. A non-empty search term
// matches username or display name, case-insensitively.
func (s *UserService) ListUsers(search string, offset, limit int) ([]*models.User, int64, error) {
	query := s.db.Model(&models.User{})
	if search != "" {
		pattern := "%" + search + "%"
		query = query.Where("username ILIKE ? OR name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*models.User
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetUserWithDetails loads a user together with their full order history
func (s *UserService) GetUserWithDetails(userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.
		Preload("Orders", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Orders.Items.Product").
		First(&user, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}
