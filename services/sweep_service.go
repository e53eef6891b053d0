package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"ip-management-api/models"
	"ip-management-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	sweepLeaseName       = "overdue_sweep"
	notificationCooldown = 24 * time.Hour
	defaultDurationDays  = 7
)

// ErrSweepInProgress is returned when another sweeper currently holds the
// batch lease.
var ErrSweepInProgress = errors.New("overdue sweep already in progress")

// PolicyResolver is the slice of SLAPolicyService the sweep depends on.
type PolicyResolver interface {
	ActivePolicy(stage string) (*models.WorkflowSLAPolicy, error)
}

// SweepSummary reports what one sweep run did.
type SweepSummary struct {
	Timestamp            time.Time `json:"timestamp"`
	StageChecksCompleted int       `json:"stage_checks_completed"`
	MarkedOverdue        int       `json:"marked_overdue"`
	MarkedExpired        int       `json:"marked_expired"`
	NotificationsSent    int       `json:"notifications_sent"`
	Errors               []string  `json:"errors"`
	Message              string    `json:"message"`
}

// SweepService detects stage instances whose effective deadline has passed,
// classifies them OVERDUE or EXPIRED and notifies the responsible party.
//
// Failure semantics: the candidate fetch (and lease acquisition) is fatal for
// the run; anything that goes wrong on a single instance is recorded in the
// summary and the run continues; email and notified_at stamping are
// best-effort. There are no retries anywhere.
type SweepService struct {
	db       *gorm.DB
	policies PolicyResolver
	notifier *NotificationService
	now      func() time.Time
	leaseTTL time.Duration
	holder   string
}

func NewSweepService(db *gorm.DB, policies PolicyResolver, notifier *NotificationService) *SweepService {
	return &SweepService{
		db:       db,
		policies: policies,
		notifier: notifier,
		now:      time.Now,
		leaseTTL: 10 * time.Minute,
		holder:   uuid.NewString(),
	}
}

// SweepOverdueStages runs one sweep over all ACTIVE instances whose effective
// deadline (extended_until when set, due_at otherwise) is in the past,
// earliest first. Re-sweeping an already classified instance is a no-op
// rewrite, so the operation is idempotent.
func (s *SweepService) SweepOverdueStages() (*SweepSummary, error) {
	now := s.now()

	if err := s.acquireLease(now); err != nil {
		return nil, err
	}
	defer s.releaseLease()

	log.Println("[sweep] Starting overdue stage check...")

	// OVERDUE instances stay in the candidate set: an applicant stage that
	// was merely overdue last run crosses into EXPIRED once its grace window
	// lapses, and reminders re-fire after the notification cooldown.
	var candidates []models.WorkflowStageInstance
	err := s.db.Preload("IPRecord").
		Where("status IN ? AND COALESCE(extended_until, due_at) < ?",
			[]string{models.StageStatusActive, models.StageStatusOverdue}, now).
		Order("COALESCE(extended_until, due_at) ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch overdue stages: %w", err)
	}

	log.Printf("[sweep] Found %d overdue stages", len(candidates))

	summary := &SweepSummary{
		Timestamp:            now,
		StageChecksCompleted: len(candidates),
		Errors:               []string{},
	}

	for i := range candidates {
		instance := &candidates[i]
		expired, notified, err := s.processInstance(instance, now)
		if err != nil {
			msg := fmt.Sprintf("Error processing stage %d: %v", instance.InstanceID, err)
			log.Printf("[sweep] %s", msg)
			summary.Errors = append(summary.Errors, msg)
			continue
		}
		if expired {
			summary.MarkedExpired++
		} else {
			summary.MarkedOverdue++
		}
		if notified {
			summary.NotificationsSent++
		}
	}

	summary.Message = fmt.Sprintf(
		"Checked %d overdue stages. Marked %d as OVERDUE, %d as EXPIRED, sent %d notifications.",
		summary.StageChecksCompleted, summary.MarkedOverdue, summary.MarkedExpired, summary.NotificationsSent)
	log.Printf("[sweep] Job completed: %s", summary.Message)

	return summary, nil
}

// processInstance classifies and persists one candidate, then handles the
// rate-limited notification. The read-classify-write is guarded by a
// conditional update on the previously observed status so overlapping
// sweepers cannot both claim the transition.
func (s *SweepService) processInstance(instance *models.WorkflowStageInstance, now time.Time) (expired, notified bool, err error) {
	policy, err := s.policies.ActivePolicy(instance.Stage)
	if err != nil {
		return false, false, err
	}

	// No policy is fine: grace defaults to zero.
	graceDays := 0
	durationDays := defaultDurationDays
	if policy != nil {
		graceDays = policy.GraceDays
		durationDays = policy.DurationDays
	}

	effectiveDue := instance.EffectiveDue()
	graceDeadline := effectiveDue.AddDate(0, 0, graceDays)
	isApplicantStage := models.IsApplicantStage(instance.Stage)

	// Reviewer stages never expire: a human's inaction does not auto-close
	// the record. Only applicant-facing stages cross into EXPIRED once the
	// grace window has passed.
	newStatus := models.StageStatusOverdue
	if isApplicantStage && now.After(graceDeadline) {
		newStatus = models.StageStatusExpired
	}

	result := s.db.Model(&models.WorkflowStageInstance{}).
		Where("instance_id = ? AND status = ?", instance.InstanceID, instance.Status).
		Updates(map[string]interface{}{"status": newStatus, "update_at": &now})
	if result.Error != nil {
		return false, false, fmt.Errorf("failed to update stage status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// A concurrent sweeper or an actor moved the instance first.
		log.Printf("[sweep] Stage %d changed underneath us, skipping", instance.InstanceID)
		return false, false, nil
	}

	expired = newStatus == models.StageStatusExpired
	log.Printf("[sweep] Marked stage %d as %s", instance.InstanceID, newStatus)

	// Rate-limited notification: never notified, or last notice older than
	// the cooldown.
	if instance.NotifiedAt != nil && now.Sub(*instance.NotifiedAt) <= notificationCooldown {
		log.Printf("[sweep] Skipping notification for stage %d (recently notified)", instance.InstanceID)
		return expired, false, nil
	}

	recipientID := s.resolveRecipient(instance, isApplicantStage)
	if recipientID == 0 {
		return expired, false, nil
	}

	daysOverdue := utils.DaysOverdue(effectiveDue, now)
	title, message := composeOverdueNotice(instance, expired, isApplicantStage, daysOverdue, durationDays, graceDays)
	payload := map[string]interface{}{
		"ip_record_id":      instance.IPRecordID,
		"stage":             instance.Stage,
		"days_overdue":      daysOverdue,
		"is_expired":        expired,
		"due_date":          effectiveDue,
		"sla_duration_days": durationDays,
		"sla_grace_days":    graceDays,
	}

	recordID := instance.IPRecordID
	if err := s.notifier.Dispatch(recipientID, "overdue_stage", title, message, payload, &recordID); err != nil {
		log.Printf("[sweep] Notification for stage %d failed (non-critical): %v", instance.InstanceID, err)
	} else {
		notified = true
		log.Printf("[sweep] Sent overdue_stage notification to user %d", recipientID)
	}

	// Stamp notified_at so the next sweep within the cooldown stays quiet.
	// A failed stamp is a warning, not an error: worst case is one extra
	// notice a sweep later.
	if err := s.db.Model(&models.WorkflowStageInstance{}).
		Where("instance_id = ?", instance.InstanceID).
		Update("notified_at", &now).Error; err != nil {
		log.Printf("[sweep] Failed to update notified_at for stage %d: %v", instance.InstanceID, err)
	}

	return expired, notified, nil
}

// resolveRecipient prefers the explicitly assigned reviewer; applicant-facing
// stages fall back to the record's applicant.
func (s *SweepService) resolveRecipient(instance *models.WorkflowStageInstance, isApplicantStage bool) int {
	if instance.AssignedUserID != nil && *instance.AssignedUserID > 0 {
		return *instance.AssignedUserID
	}
	if isApplicantStage {
		return instance.IPRecord.ApplicantID
	}
	return 0
}

func composeOverdueNotice(instance *models.WorkflowStageInstance, expired, isApplicantStage bool, daysOverdue, durationDays, graceDays int) (title, message string) {
	stageLabel := stageDisplayName(instance.Stage)
	slaDetails := formatSLADetails(durationDays, graceDays)

	var consequence string
	if expired {
		if isApplicantStage {
			consequence = "Your submission deadline has expired. Your record may be closed or marked as incomplete. Please contact support immediately."
		} else {
			consequence = "This deadline has expired. Please contact an administrator."
		}
	} else if isApplicantStage {
		consequence = fmt.Sprintf("After the grace period (%s), your submission may be closed or marked as incomplete.", pluralDays(graceDays))
	} else {
		consequence = "Please complete this review immediately. Overdue work may impact the overall submission timeline."
	}

	if expired {
		title = fmt.Sprintf("Action Required: Deadline Expired - %s", instance.IPRecord.Title)
		message = fmt.Sprintf("Your deadline for %s (%s) expired %d days ago.\n\n%s",
			stageLabel, slaDetails, daysOverdue, consequence)
	} else {
		title = fmt.Sprintf("Overdue: %s - %s", stageLabel, instance.IPRecord.Title)
		message = fmt.Sprintf("Your %s task is %d days overdue.\n\nSLA Duration: %s\n\nConsequence: %s",
			stageLabel, daysOverdue, slaDetails, consequence)
	}
	return title, message
}

func formatSLADetails(durationDays, graceDays int) string {
	details := "Duration: " + pluralDays(durationDays)
	if graceDays > 0 {
		details += " + " + pluralDays(graceDays) + " grace period"
	}
	return details
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func stageDisplayName(stage string) string {
	out := make([]byte, len(stage))
	for i := 0; i < len(stage); i++ {
		if stage[i] == '_' {
			out[i] = ' '
		} else {
			out[i] = stage[i]
		}
	}
	return string(out)
}

// acquireLease takes the single sweep lease row, stealing it only when the
// previous holder's TTL has lapsed.
func (s *SweepService) acquireLease(now time.Time) error {
	expires := now.Add(s.leaseTTL)

	result := s.db.Model(&models.SweepLease{}).
		Where("lease_name = ? AND (holder = ? OR expires_at < ?)", sweepLeaseName, s.holder, now).
		Updates(map[string]interface{}{"holder": s.holder, "expires_at": expires})
	if result.Error != nil {
		return fmt.Errorf("failed to acquire sweep lease: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var lease models.SweepLease
	err := s.db.Where("lease_name = ?", sweepLeaseName).First(&lease).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		lease = models.SweepLease{LeaseName: sweepLeaseName, Holder: s.holder, ExpiresAt: expires}
		if createErr := s.db.Create(&lease).Error; createErr != nil {
			// Lost the insert race to another sweeper.
			return ErrSweepInProgress
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect sweep lease: %w", err)
	}
	return ErrSweepInProgress
}

func (s *SweepService) releaseLease() {
	if err := s.db.Model(&models.SweepLease{}).
		Where("lease_name = ? AND holder = ?", sweepLeaseName, s.holder).
		Update("expires_at", s.now()).Error; err != nil {
		log.Printf("[sweep] Failed to release sweep lease: %v", err)
	}
}
