package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/essenza/backend/pkg/crypto"
	jwtpkg "github.com/essenza/backend/pkg/jwt"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	db    *gorm.DB
	redis *redis.Client
	cfg   *config.Config
}

func NewAuthService(db *gorm.DB, redis *redis.Client, cfg *config.Config) *AuthService {
	return &AuthService{
		db:    db,
		redis: redis,
		cfg:   cfg,
	}
}

// Register creates a customer account. Registration is open; uniqueness of
// username and email is the only gate.
func (s *AuthService) Register(username, email, password, name string) (*models.User, error) {
	var taken models.User
	if err := s.db.Where("username = ? OR email = ?", username, email).First(&taken).Error; err == nil {
		if taken.Username == username {
			return nil, errors.New("username already taken")
		}
		return nil, errors.New("email already registered")
	}

	hash, err := crypto.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: hash,
		Name:     name,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues an access/refresh token pair. The
// refresh token is persisted so Logout can revoke it.
func (s *AuthService) Login(username, password string) (string, string, *models.User, error) {
	var user models.User
	err := s.db.Where("username = ?", username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", "", nil, ErrInvalidCredentials
	case err != nil:
		return "", "", nil, err
	}

	if !crypto.CheckPassword(password, user.Password) {
		return "", "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", nil, errors.New("account is deactivated")
	}

	access, refresh, err := s.issueTokenPair(&user)
	if err != nil {
		return "", "", nil, err
	}
	return access, refresh, &user, nil
}

func (s *AuthService) issueTokenPair(user *models.User) (string, string, error) {
	access, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
	if err != nil {
		return "", "", err
	}
	refresh, err := jwtpkg.GenerateToken(user.ID.String(), jwtpkg.RefreshToken, s.cfg.JWTSecret, s.cfg.JWTRefreshTokenDuration)
	if err != nil {
		return "", "", err
	}

	record := &models.RefreshToken{
		UserID:    user.ID,
		Token:     refresh,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshTokenDuration),
	}
	if err := s.db.Create(record).Error; err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// RefreshToken exchanges a valid, stored refresh token for a new access token
func (s *AuthService) RefreshToken(refreshToken string) (string, error) {
	claims, err := jwtpkg.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil || claims.TokenType != jwtpkg.RefreshToken {
		return "", errors.New("invalid refresh token")
	}

	// The signature alone is not enough; Logout deletes the stored row
	var stored models.RefreshToken
	if err := s.db.Where("token = ?", refreshToken).First(&stored).Error; err != nil {
		return "", errors.New("refresh token revoked")
	}
	if time.Now().After(stored.ExpiresAt) {
		return "", errors.New("refresh token expired")
	}

	return jwtpkg.GenerateToken(claims.UserID, jwtpkg.AccessToken, s.cfg.JWTSecret, s.cfg.JWTAccessTokenDuration)
}

// Logout revokes every refresh token the user holds and blacklists the
// presented access token for the rest of its lifetime
func (s *AuthService) Logout(userID uuid.UUID, accessToken string) error {
	if err := s.db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		return err
	}

	claims, err := jwtpkg.ValidateToken(accessToken, s.cfg.JWTSecret)
	if err != nil {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(context.Background(), blacklistKey(accessToken), "1", ttl).Err(); err != nil {
		log.Printf("WARN: failed to blacklist access token: %v", err)
	}
	return nil
}

// ValidateAccessToken checks signature, type and the logout blacklist. If
// Redis is down the blacklist check is skipped and the request proceeds.
func (s *AuthService) ValidateAccessToken(token string) (*jwtpkg.Claims, error) {
	claims, err := jwtpkg.ValidateToken(token, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != jwtpkg.AccessToken {
		return nil, errors.New("invalid token type")
	}

	revoked, err := s.redis.Exists(context.Background(), blacklistKey(token)).Result()
	if err != nil {
		log.Printf("WARN: token blacklist unavailable: %v", err)
	} else if revoked > 0 {
		return nil, errors.New("token has been revoked")
	}

	return claims, nil
}

func blacklistKey(token string) string {
	return fmt.Sprintf("blacklist:token:%s", token)
}

// GetUserByID retrieves a user by ID
func (s *AuthService) GetUserByID(userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CleanupExpiredTokens removes expired refresh tokens
func (s *AuthService) CleanupExpiredTokens() error {
	return s.db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}
