package models

import "time"

// Record status strings. Each maps to one point in the submission workflow;
// the current stage instance carries the deadline for whoever acts next.
const (
	StatusDraft              = "draft"
	StatusSubmitted          = "submitted"
	StatusWaitingSupervisor  = "waiting_supervisor"
	StatusSupervisorRevision = "supervisor_revision"
	StatusSupervisorApproved = "supervisor_approved"
	StatusWaitingEvaluation  = "waiting_evaluation"
	StatusEvaluatorRevision  = "evaluator_revision"
	StatusEvaluatorApproved  = "evaluator_approved"
	StatusPreparingMaterials = "preparing_materials"
	StatusMaterialsSubmitted = "materials_submitted"
	StatusReadyForFiling     = "ready_for_filing"
	StatusCompleted          = "completed"
	StatusRejected           = "rejected"
)

// IPRecord represents one intellectual-property disclosure submission.
type IPRecord struct {
	RecordID     int        `gorm:"primaryKey;column:record_id" json:"record_id"`
	Title        string     `gorm:"column:title" json:"title"`
	Description  string     `gorm:"column:description" json:"description"`
	Category     string     `gorm:"column:category" json:"category"` // patent|petty_patent|copyright|trademark
	Status       string     `gorm:"column:status" json:"status"`
	ApplicantID  int        `gorm:"column:applicant_id" json:"applicant_id"`
	SupervisorID *int       `gorm:"column:supervisor_id" json:"supervisor_id,omitempty"`
	EvaluatorID  *int       `gorm:"column:evaluator_id" json:"evaluator_id,omitempty"`
	DepartmentID *int       `gorm:"column:department_id" json:"department_id,omitempty"`
	SubmittedAt  *time.Time `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
	CompletedAt  *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`
	CreateAt     time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Applicant  User  `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`
	Supervisor *User `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	Evaluator  *User `gorm:"foreignKey:EvaluatorID" json:"evaluator,omitempty"`
}

func (IPRecord) TableName() string {
	return "ip_records"
}
