package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ip-management-api/models"

	"gorm.io/gorm"
)

var policyCacheTTL = 5 * time.Minute

type policyCacheEntry struct {
	policy    *models.WorkflowSLAPolicy // nil means "no active policy", cached too
	fetchedAt time.Time
}

// SLAPolicyService resolves the single active SLA policy per stage. Absence of
// a policy is a valid state: lookups fail open with (nil, nil) so the sweep
// falls back to zero grace instead of blocking.
type SLAPolicyService struct {
	db *gorm.DB

	mu    sync.RWMutex
	cache map[string]policyCacheEntry
}

func NewSLAPolicyService(db *gorm.DB) *SLAPolicyService {
	return &SLAPolicyService{
		db:    db,
		cache: make(map[string]policyCacheEntry),
	}
}

// ActivePolicy returns the active policy for the stage, or (nil, nil) when no
// active policy exists. Results are cached briefly to keep the sweep from
// re-querying the same stage for every instance.
func (s *SLAPolicyService) ActivePolicy(stage string) (*models.WorkflowSLAPolicy, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return nil, errors.New("stage is required")
	}

	s.mu.RLock()
	entry, ok := s.cache[stage]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < policyCacheTTL {
		return entry.policy, nil
	}

	var policy models.WorkflowSLAPolicy
	err := s.db.Where("stage = ? AND is_active = ?", stage, true).First(&policy).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.store(stage, nil)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load SLA policy for stage %s: %w", stage, err)
	}

	s.store(stage, &policy)
	return &policy, nil
}

func (s *SLAPolicyService) store(stage string, policy *models.WorkflowSLAPolicy) {
	s.mu.Lock()
	s.cache[stage] = policyCacheEntry{policy: policy, fetchedAt: time.Now()}
	s.mu.Unlock()
}

// ClearCache invalidates all cached policies.
func (s *SLAPolicyService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]policyCacheEntry)
	s.mu.Unlock()
}

// ListPolicies returns all policies, active and inactive, newest first.
func (s *SLAPolicyService) ListPolicies() ([]models.WorkflowSLAPolicy, error) {
	var policies []models.WorkflowSLAPolicy
	if err := s.db.Order("stage ASC, is_active DESC, policy_id DESC").Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to list SLA policies: %w", err)
	}
	return policies, nil
}

// CreatePolicy inserts a new active policy for its stage, deactivating any
// previous active policy in the same transaction so the one-active-per-stage
// invariant holds.
func (s *SLAPolicyService) CreatePolicy(policy *models.WorkflowSLAPolicy) error {
	if strings.TrimSpace(policy.Stage) == "" {
		return errors.New("stage is required")
	}
	if policy.DurationDays <= 0 {
		return errors.New("duration_days must be positive")
	}
	if policy.GraceDays < 0 || policy.ExtensionDays < 0 || policy.MaxExtensions < 0 {
		return errors.New("grace_days, extension_days and max_extensions must not be negative")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.WorkflowSLAPolicy{}).
			Where("stage = ? AND is_active = ?", policy.Stage, true).
			Update("is_active", false).Error; err != nil {
			return err
		}
		policy.IsActive = true
		policy.CreateAt = time.Now()
		return tx.Create(policy).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create SLA policy: %w", err)
	}

	s.ClearCache()
	return nil
}

// UpdatePolicy rewrites the mutable fields of an existing policy.
func (s *SLAPolicyService) UpdatePolicy(policyID int, updates map[string]interface{}) error {
	now := time.Now()
	updates["update_at"] = &now

	result := s.db.Model(&models.WorkflowSLAPolicy{}).
		Where("policy_id = ?", policyID).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update SLA policy %d: %w", policyID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("SLA policy %d not found", policyID)
	}

	s.ClearCache()
	return nil
}

// DeactivatePolicy turns a policy off without deleting it. Instances already
// created under it keep their computed deadlines.
func (s *SLAPolicyService) DeactivatePolicy(policyID int) error {
	return s.UpdatePolicy(policyID, map[string]interface{}{"is_active": false})
}
