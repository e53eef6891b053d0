package services

import (
	"errors"
	"fmt"
	"time"

	"ip-management-api/models"
	"ip-management-api/utils"

	"gorm.io/gorm"
)

// Historical budget for presentation materials before SLA policies existed.
const materialsDefaultBusinessDays = 10

// MaterialsFiles carries the uploaded file metadata for a materials
// submission.
type MaterialsFiles struct {
	PosterURL  string
	PosterName string
	PosterSize int64
	PaperURL   string
	PaperName  string
	PaperSize  int64
}

// MaterialsService handles the academic presentation materials sub-workflow:
// an admin requests materials, the applicant submits a poster and short paper
// before the business-day deadline, and an admin may reject for resubmission.
type MaterialsService struct {
	db       *gorm.DB
	policies PolicyResolver
	now      func() time.Time
}

func NewMaterialsService(db *gorm.DB, policies PolicyResolver) *MaterialsService {
	return &MaterialsService{db: db, policies: policies, now: time.Now}
}

// RequestMaterials creates or re-arms the materials record for a submission,
// stamping who asked and when. The deadline clock starts at the request time.
func (s *MaterialsService) RequestMaterials(recordID, adminID int) (*models.PresentationMaterials, error) {
	now := s.now()

	var materials models.PresentationMaterials
	err := s.db.Where("ip_record_id = ?", recordID).First(&materials).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		materials = models.PresentationMaterials{
			IPRecordID:           recordID,
			Status:               models.MaterialsRequested,
			MaterialsRequestedAt: &now,
			MaterialsRequestedBy: &adminID,
			CreateAt:             now,
		}
		if err := s.db.Create(&materials).Error; err != nil {
			return nil, fmt.Errorf("failed to request materials: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load materials for record %d: %w", recordID, err)
	default:
		updates := map[string]interface{}{
			"status":                 models.MaterialsRequested,
			"materials_requested_at": &now,
			"materials_requested_by": &adminID,
			"update_at":              &now,
		}
		if err := s.db.Model(&materials).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to request materials: %w", err)
		}
		materials.Status = models.MaterialsRequested
		materials.MaterialsRequestedAt = &now
		materials.MaterialsRequestedBy = &adminID
		materials.UpdateAt = &now
	}

	return &materials, nil
}

// SubmitMaterials records the uploaded files and closes the pending request.
func (s *MaterialsService) SubmitMaterials(recordID, applicantID int, files MaterialsFiles) (*models.PresentationMaterials, error) {
	if files.PosterURL == "" || files.PaperURL == "" {
		return nil, errors.New("both poster and paper files are required")
	}

	var materials models.PresentationMaterials
	if err := s.db.Where("ip_record_id = ?", recordID).First(&materials).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("materials were not requested for record %d", recordID)
		}
		return nil, fmt.Errorf("failed to load materials for record %d: %w", recordID, err)
	}
	if materials.Status != models.MaterialsRequested && materials.Status != models.MaterialsRejected {
		return nil, fmt.Errorf("materials for record %d are not awaiting submission (status %s)", recordID, materials.Status)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":                 models.MaterialsSubmitted,
		"materials_submitted_at": &now,
		"submitted_by":           &applicantID,
		"poster_file_url":        files.PosterURL,
		"poster_file_name":       files.PosterName,
		"poster_file_size":       files.PosterSize,
		"paper_file_url":         files.PaperURL,
		"paper_file_name":        files.PaperName,
		"paper_file_size":        files.PaperSize,
		"update_at":              &now,
	}
	if err := s.db.Model(&materials).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to submit materials: %w", err)
	}

	return s.GetMaterials(recordID)
}

// RejectMaterials clears the submitted files and re-arms the request so the
// applicant can resubmit.
func (s *MaterialsService) RejectMaterials(recordID int) (*models.PresentationMaterials, error) {
	var materials models.PresentationMaterials
	if err := s.db.Where("ip_record_id = ?", recordID).First(&materials).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("materials were not requested for record %d", recordID)
		}
		return nil, fmt.Errorf("failed to load materials for record %d: %w", recordID, err)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":                 models.MaterialsRequested,
		"poster_file_url":        nil,
		"poster_file_name":       nil,
		"poster_file_size":       nil,
		"paper_file_url":         nil,
		"paper_file_name":        nil,
		"paper_file_size":        nil,
		"materials_submitted_at": nil,
		"submitted_by":           nil,
		"update_at":              &now,
	}
	if err := s.db.Model(&materials).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reject materials: %w", err)
	}

	return s.GetMaterials(recordID)
}

// GetMaterials returns the materials record, or (nil, nil) when materials
// were never requested.
func (s *MaterialsService) GetMaterials(recordID int) (*models.PresentationMaterials, error) {
	var materials models.PresentationMaterials
	err := s.db.Where("ip_record_id = ?", recordID).First(&materials).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load materials for record %d: %w", recordID, err)
	}
	return &materials, nil
}

// Deadline computes the submission deadline from the request timestamp using
// the materials SLA policy. Without a policy the historical ten business days
// apply.
func (s *MaterialsService) Deadline(requestedAt time.Time) (time.Time, error) {
	duration := materialsDefaultBusinessDays
	business := true

	policy, err := s.policies.ActivePolicy(models.StageMaterialsRequested)
	if err != nil {
		return time.Time{}, err
	}
	if policy != nil {
		duration = policy.DurationDays
		business = policy.BusinessDays
	}

	if business {
		return utils.AddBusinessDays(requestedAt, duration), nil
	}
	return requestedAt.AddDate(0, 0, duration), nil
}

// DaysRemaining returns whole days until the deadline, negative once past it.
func (s *MaterialsService) DaysRemaining(requestedAt time.Time) (int, error) {
	deadline, err := s.Deadline(requestedAt)
	if err != nil {
		return 0, err
	}
	const day = 24 * time.Hour
	remaining := deadline.Sub(s.now())
	days := int(remaining / day)
	if remaining%day != 0 && remaining > 0 {
		days++
	}
	return days, nil
}
