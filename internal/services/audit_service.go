package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/essenza/backend/internal/config"
	"github.com/essenza/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// watchedActions are the account-level admin actions that trigger an alert
// when performed in a burst
var watchedActions = map[string]bool{
	"reset_user_password": true,
	"set_user_active":     true,
	"delete_product":      true,
}

const (
	burstWindow    = 5 * time.Minute
	burstThreshold = 5
)

type AuditService struct {
	db           *gorm.DB
	emailService *EmailService
	cfg          *config.Config
}

func NewAuditService(db *gorm.DB, emailService *EmailService, cfg *config.Config) *AuditService {
	return &AuditService{db: db, emailService: emailService, cfg: cfg}
}

// LogAction records an admin action. Failing to serialize the details is not
// worth losing the entry over, so the payload degrades to an empty string.
func (s *AuditService) LogAction(adminID uuid.UUID, action, targetType string, targetID uuid.UUID, details map[string]interface{}, ipAddress, userAgent string) error {
	entry := models.AuditLog{
		AdminID:    adminID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Details:    marshalDetails(details),
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return err
	}

	go s.alertOnBurst(adminID, action)
	return nil
}

func marshalDetails(details map[string]interface{}) string {
	if len(details) == 0 {
		return ""
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return ""
	}
	return string(raw)
}

// alertOnBurst mails the alert address when an admin burns through watched
// account actions faster than any legitimate workflow would
func (s *AuditService) alertOnBurst(adminID uuid.UUID, action string) {
	if !watchedActions[action] {
		return
	}

	count, err := s.GetActionCount(adminID, action, time.Now().Add(-burstWindow))
	if err != nil || count < burstThreshold {
		return
	}
	if s.emailService == nil || s.cfg == nil || s.cfg.AdminAlertEmail == "" {
		return
	}

	var admin models.User
	if err := s.db.First(&admin, adminID).Error; err != nil {
		return
	}

	body := fmt.Sprintf("Warning: administrator %s (%s) performed %q %d times within the last %s.\n\n"+
		"This could indicate a compromised account.\n\n"+
		"Please review the activity in the admin dashboard under \"Audit Log\".\n",
		admin.Name, admin.Email, action, count, burstWindow)
	_ = s.emailService.SendGenericTextEmail(s.cfg.AdminAlertEmail, "Suspicious admin activity detected", body)
}

// GetRecentActions retrieves admin actions newest-first, optionally filtered
// by admin or action name
func (s *AuditService) GetRecentActions(page, limit int, adminID *uuid.UUID, action string) ([]*models.AuditLog, int64, error) {
	q := s.db.Model(&models.AuditLog{}).Preload("Admin")
	if adminID != nil {
		q = q.Where("admin_id = ?", *adminID)
	}
	if action != "" {
		q = q.Where("action = ?", action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []*models.AuditLog
	err := q.Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

// GetActionCount counts one admin's occurrences of an action since a cutoff
func (s *AuditService) GetActionCount(adminID uuid.UUID, action string, since time.Time) (int64, error) {
	var count int64
	err := s.db.Model(&models.AuditLog{}).
		Where("admin_id = ? AND action = ? AND created_at > ?", adminID, action, since).
		Count(&count).Error
	return count, err
}

// ActionTally is one row of the per-action breakdown
type ActionTally struct {
	Action string `json:"action"`
	Count  int64  `json:"count"`
}

// AdminTally is one row of the most-active-admins breakdown
type AdminTally struct {
	AdminID uuid.UUID `json:"admin_id"`
	Count   int64     `json:"count"`
}

// AuditStats summarizes audit log volume for the admin dashboard
type AuditStats struct {
	TotalActions  int64         `json:"total_actions"`
	ActionsByType []ActionTally `json:"actions_by_type"`
	TopAdmins30d  []AdminTally  `json:"most_active_admins_30d"`
	ActionsLast24 int64         `json:"actions_last_24h"`
}

// GetStats aggregates the audit log for the dashboard overview
func (s *AuditService) GetStats() (*AuditStats, error) {
	stats := &AuditStats{}

	if err := s.db.Model(&models.AuditLog{}).Count(&stats.TotalActions).Error; err != nil {
		return nil, err
	}

	err := s.db.Model(&models.AuditLog{}).
		Select("action, COUNT(*) AS count").
		Group("action").
		Order("count DESC").
		Scan(&stats.ActionsByType).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.AuditLog{}).
		Select("admin_id, COUNT(*) AS count").
		Where("created_at > ?", time.Now().AddDate(0, 0, -30)).
		Group("admin_id").
		Order("count DESC").
		Limit(10).
		Scan(&stats.TopAdmins30d).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.AuditLog{}).
		Where("created_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&stats.ActionsLast24).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
