package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"ip-management-api/config"
	"ip-management-api/models"

	"gorm.io/gorm"
)

// MailFunc sends an HTML email. config.SendMail satisfies it; tests swap in a
// fake.
type MailFunc func(to []string, subject, html string) error

// NotificationService creates in-app notification rows and forwards them by
// email on a best-effort basis. Email failures are logged, never returned.
type NotificationService struct {
	db     *gorm.DB
	mailer MailFunc
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, mailer: config.SendMail}
}

// NewNotificationServiceWithMailer is used by tests and by callers that need
// a different delivery channel.
func NewNotificationServiceWithMailer(db *gorm.DB, mailer MailFunc) *NotificationService {
	return &NotificationService{db: db, mailer: mailer}
}

// Dispatch persists the notification and attempts email delivery. The row
// insert is the authoritative part; a mailer failure does not fail Dispatch.
func (s *NotificationService) Dispatch(userID int, notifType, title, message string, payload map[string]interface{}, relatedRecordID *int) error {
	if userID <= 0 {
		return errors.New("notification recipient is required")
	}

	notification := models.Notification{
		UserID:          userID,
		Type:            notifType,
		Title:           title,
		Message:         message,
		RelatedRecordID: relatedRecordID,
		CreateAt:        time.Now(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode notification payload: %w", err)
		}
		encoded := string(raw)
		notification.Payload = &encoded
	}

	if err := s.db.Create(&notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	s.sendEmail(userID, title, message)
	return nil
}

func (s *NotificationService) sendEmail(userID int, subject, message string) {
	var user models.User
	if err := s.db.Select("email", "full_name").
		Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		log.Printf("[notify] Skipping email for user %d: %v", userID, err)
		return
	}
	if user.Email == "" {
		return
	}

	html := fmt.Sprintf("<p>Dear %s,</p><p>%s</p><p>University IP Office</p>",
		user.FullName, message)
	if err := s.mailer([]string{user.Email}, subject, html); err != nil {
		log.Printf("[notify] Email send attempt failed (non-critical): %v", err)
	}
}

// MarkRead flags a single notification as read for its owner.
func (s *NotificationService) MarkRead(notificationID uint, userID int) error {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]interface{}{"is_read": true, "update_at": &now})
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification for the user.
func (s *NotificationService) MarkAllRead(userID int) (int64, error) {
	now := time.Now()
	result := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "update_at": &now})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", result.Error)
	}
	return result.RowsAffected, nil
}
