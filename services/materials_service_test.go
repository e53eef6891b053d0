package services

import (
	"testing"
	"time"

	"ip-management-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFiles() MaterialsFiles {
	return MaterialsFiles{
		PosterURL:  "/uploads/poster.pdf",
		PosterName: "poster.pdf",
		PosterSize: 1024,
		PaperURL:   "/uploads/paper.pdf",
		PaperName:  "paper.pdf",
		PaperSize:  2048,
	}
}

func TestRequestMaterialsStampsRequester(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	record := createTestRecord(t, db, applicant.UserID, models.StatusEvaluatorApproved)

	svc := NewMaterialsService(db, &stubPolicies{})
	svc.now = func() time.Time { return now }

	materials, err := svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)

	assert.Equal(t, models.MaterialsRequested, materials.Status)
	require.NotNil(t, materials.MaterialsRequestedAt)
	assert.Equal(t, now, *materials.MaterialsRequestedAt)
	require.NotNil(t, materials.MaterialsRequestedBy)
	assert.Equal(t, admin.UserID, *materials.MaterialsRequestedBy)
}

func TestRequestMaterialsReArmsExistingRecord(t *testing.T) {
	db := newTestDB(t)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	record := createTestRecord(t, db, applicant.UserID, models.StatusEvaluatorApproved)

	svc := NewMaterialsService(db, &stubPolicies{})

	_, err := svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)
	_, err = svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.PresentationMaterials{}).
		Where("ip_record_id = ?", record.RecordID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSubmitMaterialsRecordsFiles(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 12, 15, 0, 0, 0, time.UTC)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	record := createTestRecord(t, db, applicant.UserID, models.StatusPreparingMaterials)

	svc := NewMaterialsService(db, &stubPolicies{})
	svc.now = func() time.Time { return now }

	_, err := svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)

	materials, err := svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	require.NoError(t, err)

	assert.Equal(t, models.MaterialsSubmitted, materials.Status)
	require.NotNil(t, materials.PosterFileURL)
	assert.Equal(t, "/uploads/poster.pdf", *materials.PosterFileURL)
	require.NotNil(t, materials.PaperFileName)
	assert.Equal(t, "paper.pdf", *materials.PaperFileName)
	require.NotNil(t, materials.MaterialsSubmittedAt)
	assert.Equal(t, now, *materials.MaterialsSubmittedAt)
	require.NotNil(t, materials.SubmittedBy)
	assert.Equal(t, applicant.UserID, *materials.SubmittedBy)
}

func TestSubmitMaterialsRequiresPendingRequest(t *testing.T) {
	db := newTestDB(t)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	record := createTestRecord(t, db, applicant.UserID, models.StatusPreparingMaterials)

	svc := NewMaterialsService(db, &stubPolicies{})

	// Never requested.
	_, err := svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	assert.Error(t, err)

	// Already submitted.
	_, err = svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)
	_, err = svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	require.NoError(t, err)
	_, err = svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	assert.Error(t, err)

	// Missing files.
	files := testFiles()
	files.PaperURL = ""
	_, err = svc.SubmitMaterials(record.RecordID, applicant.UserID, files)
	assert.Error(t, err)
}

func TestRejectMaterialsClearsFilesForResubmission(t *testing.T) {
	db := newTestDB(t)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	admin := createTestUser(t, db, "admin", models.RoleAdmin)
	record := createTestRecord(t, db, applicant.UserID, models.StatusPreparingMaterials)

	svc := NewMaterialsService(db, &stubPolicies{})

	_, err := svc.RequestMaterials(record.RecordID, admin.UserID)
	require.NoError(t, err)
	_, err = svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	require.NoError(t, err)

	materials, err := svc.RejectMaterials(record.RecordID)
	require.NoError(t, err)

	assert.Equal(t, models.MaterialsRequested, materials.Status)
	assert.Nil(t, materials.PosterFileURL)
	assert.Nil(t, materials.PaperFileURL)
	assert.Nil(t, materials.MaterialsSubmittedAt)
	assert.Nil(t, materials.SubmittedBy)

	// The applicant can submit again after the rejection.
	_, err = svc.SubmitMaterials(record.RecordID, applicant.UserID, testFiles())
	assert.NoError(t, err)
}

func TestGetMaterialsReturnsNilWhenNeverRequested(t *testing.T) {
	db := newTestDB(t)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	record := createTestRecord(t, db, applicant.UserID, models.StatusEvaluatorApproved)

	svc := NewMaterialsService(db, &stubPolicies{})

	materials, err := svc.GetMaterials(record.RecordID)
	require.NoError(t, err)
	assert.Nil(t, materials)
}

func TestMaterialsDeadlineDefaultsToTenBusinessDays(t *testing.T) {
	svc := NewMaterialsService(nil, &stubPolicies{})

	// Friday request: ten business days land two full weeks later.
	friday := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	deadline, err := svc.Deadline(friday)
	require.NoError(t, err)
	assert.Equal(t, friday.AddDate(0, 0, 14), deadline)
}

func TestMaterialsDeadlineFollowsPolicy(t *testing.T) {
	policies := &stubPolicies{policies: map[string]*models.WorkflowSLAPolicy{
		models.StageMaterialsRequested: {
			Stage: models.StageMaterialsRequested, DurationDays: 5, BusinessDays: false,
		},
	}}
	svc := NewMaterialsService(nil, policies)

	requested := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	deadline, err := svc.Deadline(requested)
	require.NoError(t, err)
	assert.Equal(t, requested.AddDate(0, 0, 5), deadline)
}

func TestMaterialsDaysRemaining(t *testing.T) {
	svc := NewMaterialsService(nil, &stubPolicies{})

	requested := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)

	svc.now = func() time.Time { return requested.AddDate(0, 0, 10) }
	remaining, err := svc.DaysRemaining(requested)
	require.NoError(t, err)
	assert.Equal(t, 4, remaining)

	// Past the deadline the count goes negative.
	svc.now = func() time.Time { return requested.AddDate(0, 0, 16) }
	remaining, err = svc.DaysRemaining(requested)
	require.NoError(t, err)
	assert.Equal(t, -2, remaining)
}
