package models

import "time"

type Notification struct {
	NotificationID  uint       `gorm:"primaryKey;column:notification_id" json:"notification_id"`
	UserID          int        `gorm:"column:user_id;index" json:"user_id"`
	Type            string     `gorm:"column:type" json:"type"` // overdue_stage|status_change|materials_request|info
	Title           string     `gorm:"column:title" json:"title"`
	Message         string     `gorm:"column:message" json:"message"`
	Payload         *string    `gorm:"column:payload" json:"payload,omitempty"` // JSON document
	RelatedRecordID *int       `gorm:"column:related_record_id" json:"related_record_id,omitempty"`
	IsRead          bool       `gorm:"column:is_read" json:"is_read"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"created_at"`
	UpdateAt        *time.Time `gorm:"column:update_at" json:"-"`
}

func (Notification) TableName() string { return "notifications" }
