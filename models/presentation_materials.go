package models

import "time"

// Materials request statuses.
const (
	MaterialsNotRequested = "not_requested"
	MaterialsRequested    = "requested"
	MaterialsSubmitted    = "submitted"
	MaterialsRejected     = "rejected"
)

// PresentationMaterials tracks the academic presentation materials requested
// from an applicant after evaluation: a scientific poster and an IMRaD short
// paper. One row per record, reused across resubmissions.
type PresentationMaterials struct {
	MaterialsID          int        `gorm:"primaryKey;column:materials_id" json:"materials_id"`
	IPRecordID           int        `gorm:"column:ip_record_id;uniqueIndex" json:"ip_record_id"`
	Status               string     `gorm:"column:status" json:"status"`
	MaterialsRequestedAt *time.Time `gorm:"column:materials_requested_at" json:"materials_requested_at,omitempty"`
	MaterialsRequestedBy *int       `gorm:"column:materials_requested_by" json:"materials_requested_by,omitempty"`
	MaterialsSubmittedAt *time.Time `gorm:"column:materials_submitted_at" json:"materials_submitted_at,omitempty"`
	SubmittedBy          *int       `gorm:"column:submitted_by" json:"submitted_by,omitempty"`
	PosterFileURL        *string    `gorm:"column:poster_file_url" json:"poster_file_url,omitempty"`
	PosterFileName       *string    `gorm:"column:poster_file_name" json:"poster_file_name,omitempty"`
	PosterFileSize       *int64     `gorm:"column:poster_file_size" json:"poster_file_size,omitempty"`
	PaperFileURL         *string    `gorm:"column:paper_file_url" json:"paper_file_url,omitempty"`
	PaperFileName        *string    `gorm:"column:paper_file_name" json:"paper_file_name,omitempty"`
	PaperFileSize        *int64     `gorm:"column:paper_file_size" json:"paper_file_size,omitempty"`
	CreateAt             time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt             *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (PresentationMaterials) TableName() string {
	return "presentation_materials"
}
