package services

import (
	"errors"
	"fmt"
	"time"

	"ip-management-api/models"
	"ip-management-api/utils"

	"gorm.io/gorm"
)

// StageService owns the stage instance lifecycle: exactly one ACTIVE instance
// per record at any time. Moving a record into a stage closes the previous
// ACTIVE instance and opens a new one with a policy-derived deadline; old
// instances are never deleted.
type StageService struct {
	db       *gorm.DB
	policies PolicyResolver
	now      func() time.Time
}

func NewStageService(db *gorm.DB, policies PolicyResolver) *StageService {
	return &StageService{db: db, policies: policies, now: time.Now}
}

// EnterStage opens a new ACTIVE instance for the record. assignedUserID names
// the responsible reviewer; pass nil for applicant-facing stages, where the
// applicant is the responsible party. actorID is recorded in the process
// history.
func (s *StageService) EnterStage(recordID int, stage string, assignedUserID *int, actorID *int) (*models.WorkflowStageInstance, error) {
	now := s.now()

	dueAt, err := s.computeDueAt(stage, now)
	if err != nil {
		return nil, err
	}

	instance := &models.WorkflowStageInstance{
		IPRecordID:     recordID,
		Stage:          stage,
		Status:         models.StageStatusActive,
		AssignedUserID: assignedUserID,
		DueAt:          dueAt,
		CreateAt:       now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Close whatever is currently active so the single-ACTIVE invariant
		// holds before the new instance exists.
		if err := tx.Model(&models.WorkflowStageInstance{}).
			Where("ip_record_id = ? AND status IN ?", recordID,
				[]string{models.StageStatusActive, models.StageStatusOverdue}).
			Updates(map[string]interface{}{"status": models.StageStatusCompleted, "update_at": &now}).Error; err != nil {
			return err
		}

		if err := tx.Create(instance).Error; err != nil {
			return err
		}

		event := models.ProcessEvent{
			IPRecordID:  recordID,
			Stage:       stage,
			Status:      models.StageStatusActive,
			ActorID:     actorID,
			Action:      "stage_entered",
			Description: fmt.Sprintf("Entered stage %s, due %s", stage, dueAt.Format(time.RFC3339)),
			CreatedAt:   now,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enter stage %s for record %d: %w", stage, recordID, err)
	}

	return instance, nil
}

// CompleteStage closes the record's current open instance without opening a
// new one. Used when the workflow ends (completion, rejection).
func (s *StageService) CompleteStage(recordID int, actorID *int, reason string) error {
	now := s.now()

	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.WorkflowStageInstance{}).
			Where("ip_record_id = ? AND status IN ?", recordID,
				[]string{models.StageStatusActive, models.StageStatusOverdue}).
			Updates(map[string]interface{}{"status": models.StageStatusCompleted, "update_at": &now})
		if result.Error != nil {
			return fmt.Errorf("failed to complete stage for record %d: %w", recordID, result.Error)
		}

		event := models.ProcessEvent{
			IPRecordID:  recordID,
			Status:      models.StageStatusCompleted,
			ActorID:     actorID,
			Action:      "stage_completed",
			Description: reason,
			CreatedAt:   now,
		}
		return tx.Create(&event).Error
	})
}

// ActiveInstance returns the record's current open instance, or nil when the
// record is between stages.
func (s *StageService) ActiveInstance(recordID int) (*models.WorkflowStageInstance, error) {
	var instance models.WorkflowStageInstance
	err := s.db.Where("ip_record_id = ? AND status IN ?", recordID,
		[]string{models.StageStatusActive, models.StageStatusOverdue, models.StageStatusExpired}).
		Order("instance_id DESC").
		First(&instance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active instance for record %d: %w", recordID, err)
	}
	return &instance, nil
}

// History returns every instance the record has passed through, oldest first.
func (s *StageService) History(recordID int) ([]models.WorkflowStageInstance, error) {
	var instances []models.WorkflowStageInstance
	if err := s.db.Where("ip_record_id = ?", recordID).
		Order("instance_id ASC").
		Find(&instances).Error; err != nil {
		return nil, fmt.Errorf("failed to load stage history for record %d: %w", recordID, err)
	}
	return instances, nil
}

// computeDueAt derives the stage deadline from the active policy. Policies
// configured in business days skip weekends; no policy falls back to a
// 7-calendar-day budget rather than blocking stage entry.
func (s *StageService) computeDueAt(stage string, from time.Time) (time.Time, error) {
	policy, err := s.policies.ActivePolicy(stage)
	if err != nil {
		return time.Time{}, err
	}

	duration := defaultDurationDays
	business := false
	if policy != nil {
		duration = policy.DurationDays
		business = policy.BusinessDays
	} else if stage == models.StageMaterialsRequested || stage == models.StagePresentationMaterials {
		// Materials keep their historical 10-business-day budget when no
		// policy row exists.
		duration = materialsDefaultBusinessDays
		business = true
	}

	if business {
		return utils.AddBusinessDays(from, duration), nil
	}
	return from.AddDate(0, 0, duration), nil
}
