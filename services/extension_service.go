package services

import (
	"errors"
	"fmt"
	"time"

	"ip-management-api/models"

	"gorm.io/gorm"
)

var (
	// ErrExtensionsNotAllowed means the governing policy forbids extensions
	// for the stage or no policy permits them.
	ErrExtensionsNotAllowed = errors.New("extensions are not allowed for this stage")
	// ErrExtensionsExhausted means the instance already used every extension
	// the policy grants.
	ErrExtensionsExhausted = errors.New("maximum number of extensions reached")
)

// ExtensionService grants deadline extensions on stage instances. Granting an
// extension immediately flips an OVERDUE or EXPIRED instance back to ACTIVE,
// so the audit trail shows the reprieve rather than relying on the next sweep
// to quietly stop flagging it.
type ExtensionService struct {
	db       *gorm.DB
	policies PolicyResolver
	now      func() time.Time
}

func NewExtensionService(db *gorm.DB, policies PolicyResolver) *ExtensionService {
	return &ExtensionService{db: db, policies: policies, now: time.Now}
}

// GrantExtension pushes the instance deadline by the policy's extension_days,
// counted from the current effective deadline, and reactivates the instance.
func (s *ExtensionService) GrantExtension(instanceID int, adminID int) (*models.WorkflowStageInstance, error) {
	var instance models.WorkflowStageInstance
	if err := s.db.First(&instance, "instance_id = ?", instanceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stage instance %d not found", instanceID)
		}
		return nil, fmt.Errorf("failed to load stage instance %d: %w", instanceID, err)
	}

	policy, err := s.policies.ActivePolicy(instance.Stage)
	if err != nil {
		return nil, err
	}
	if policy == nil || !policy.AllowExtensions || policy.ExtensionDays <= 0 {
		return nil, ErrExtensionsNotAllowed
	}
	if instance.ExtensionCount >= policy.MaxExtensions {
		return nil, ErrExtensionsExhausted
	}

	now := s.now()
	extendedUntil := instance.EffectiveDue().AddDate(0, 0, policy.ExtensionDays)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.WorkflowStageInstance{}).
			Where("instance_id = ? AND extension_count = ?", instanceID, instance.ExtensionCount).
			Updates(map[string]interface{}{
				"status":          models.StageStatusActive,
				"extended_until":  &extendedUntil,
				"extension_count": instance.ExtensionCount + 1,
				"update_at":       &now,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errors.New("instance changed concurrently, extension not applied")
		}

		event := models.ProcessEvent{
			IPRecordID:  instance.IPRecordID,
			Stage:       instance.Stage,
			Status:      models.StageStatusActive,
			ActorID:     &adminID,
			Action:      "extension_granted",
			Description: fmt.Sprintf("Deadline extended by %d days to %s", policy.ExtensionDays, extendedUntil.Format(time.RFC3339)),
			CreatedAt:   now,
		}
		return tx.Create(&event).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grant extension on instance %d: %w", instanceID, err)
	}

	instance.Status = models.StageStatusActive
	instance.ExtendedUntil = &extendedUntil
	instance.ExtensionCount++
	instance.UpdateAt = &now
	return &instance, nil
}
