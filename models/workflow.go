package models

import "time"

// Workflow stage keys. The last two are applicant-facing sub-stages: the
// responsible party is the submitter, and only these stages can hard-expire
// once the grace period runs out.
const (
	StageSubmission            = "submission"
	StageSupervisorReview      = "supervisor_review"
	StageEvaluation            = "evaluation"
	StagePresentationMaterials = "academic_presentation_materials"
	StageCompletion            = "completion"
	StageRevisionRequested     = "revision_requested"
	StageMaterialsRequested    = "materials_requested"
)

// Stage instance statuses.
const (
	StageStatusActive    = "ACTIVE"
	StageStatusOverdue   = "OVERDUE"
	StageStatusExpired   = "EXPIRED"
	StageStatusCompleted = "COMPLETED"
)

var applicantStages = map[string]bool{
	StageRevisionRequested:  true,
	StageMaterialsRequested: true,
}

// IsApplicantStage reports whether the responsible party for the stage is the
// record's applicant rather than an assigned reviewer.
func IsApplicantStage(stage string) bool {
	return applicantStages[stage]
}

// WorkflowStageInstance is one concrete occurrence of a record being in a
// stage, with its own deadline and status. Instances are append-only: a record
// re-entering a stage gets a fresh instance and the old one stays as audit
// history.
type WorkflowStageInstance struct {
	InstanceID     int        `gorm:"primaryKey;column:instance_id" json:"instance_id"`
	IPRecordID     int        `gorm:"column:ip_record_id;index" json:"ip_record_id"`
	Stage          string     `gorm:"column:stage" json:"stage"`
	Status         string     `gorm:"column:status;index" json:"status"`
	AssignedUserID *int       `gorm:"column:assigned_user_id" json:"assigned_user_id,omitempty"`
	DueAt          time.Time  `gorm:"column:due_at;index" json:"due_at"`
	ExtendedUntil  *time.Time `gorm:"column:extended_until" json:"extended_until,omitempty"`
	ExtensionCount int        `gorm:"column:extension_count" json:"extension_count"`
	NotifiedAt     *time.Time `gorm:"column:notified_at" json:"notified_at,omitempty"`
	CreateAt       time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt       *time.Time `gorm:"column:update_at" json:"update_at"`

	// Relations
	IPRecord IPRecord `gorm:"foreignKey:IPRecordID" json:"ip_record,omitempty"`
}

func (WorkflowStageInstance) TableName() string {
	return "workflow_stage_instances"
}

// EffectiveDue returns the deadline that currently governs the instance. An
// extension supersedes the original due date.
func (s *WorkflowStageInstance) EffectiveDue() time.Time {
	if s.ExtendedUntil != nil {
		return *s.ExtendedUntil
	}
	return s.DueAt
}

// WorkflowSLAPolicy configures how long a stage may take before it is due,
// the grace window before an applicant-facing stage expires, and how the
// deadline may be extended. At most one active policy per stage.
type WorkflowSLAPolicy struct {
	PolicyID        int        `gorm:"primaryKey;column:policy_id" json:"policy_id"`
	Stage           string     `gorm:"column:stage;index" json:"stage"`
	DurationDays    int        `gorm:"column:duration_days" json:"duration_days"`
	GraceDays       int        `gorm:"column:grace_days" json:"grace_days"`
	BusinessDays    bool       `gorm:"column:business_days" json:"business_days"`
	AllowExtensions bool       `gorm:"column:allow_extensions" json:"allow_extensions"`
	MaxExtensions   int        `gorm:"column:max_extensions" json:"max_extensions"`
	ExtensionDays   int        `gorm:"column:extension_days" json:"extension_days"`
	IsActive        bool       `gorm:"column:is_active;index" json:"is_active"`
	CreateAt        time.Time  `gorm:"column:create_at" json:"create_at"`
	UpdateAt        *time.Time `gorm:"column:update_at" json:"update_at"`
}

func (WorkflowSLAPolicy) TableName() string {
	return "workflow_sla_policies"
}

// ProcessEvent is the append-only history of workflow actions on a record.
type ProcessEvent struct {
	EventID     int       `gorm:"primaryKey;column:event_id" json:"event_id"`
	IPRecordID  int       `gorm:"column:ip_record_id;index" json:"ip_record_id"`
	Stage       string    `gorm:"column:stage" json:"stage"`
	Status      string    `gorm:"column:status" json:"status"`
	ActorID     *int      `gorm:"column:actor_id" json:"actor_id,omitempty"`
	Action      string    `gorm:"column:action" json:"action"`
	Description string    `gorm:"column:description" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ProcessEvent) TableName() string {
	return "process_tracking"
}

// SweepLease is a single-row advisory lease: one sweeper owns the overdue
// batch at a time so overlapping scheduled runs cannot double-process it.
type SweepLease struct {
	LeaseName string    `gorm:"primaryKey;column:lease_name" json:"lease_name"`
	Holder    string    `gorm:"column:holder" json:"holder"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"expires_at"`
}

func (SweepLease) TableName() string {
	return "workflow_sweep_leases"
}
