package services

import (
	"testing"
	"time"

	"ip-management-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnterStageComputesPolicyDeadline(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // Monday

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	supervisor := createTestUser(t, db, "supervisor", models.RoleSupervisor)
	record := createTestRecord(t, db, applicant.UserID, models.StatusWaitingSupervisor)

	policies := &stubPolicies{policies: map[string]*models.WorkflowSLAPolicy{
		models.StageSupervisorReview: {Stage: models.StageSupervisorReview, DurationDays: 14},
	}}
	svc := NewStageService(db, policies)
	svc.now = func() time.Time { return now }

	instance, err := svc.EnterStage(record.RecordID, models.StageSupervisorReview, &supervisor.UserID, &applicant.UserID)
	require.NoError(t, err)

	assert.Equal(t, models.StageStatusActive, instance.Status)
	assert.Equal(t, now.AddDate(0, 0, 14), instance.DueAt)
	require.NotNil(t, instance.AssignedUserID)
	assert.Equal(t, supervisor.UserID, *instance.AssignedUserID)

	var event models.ProcessEvent
	require.NoError(t, db.First(&event, "action = ?", "stage_entered").Error)
	assert.Equal(t, record.RecordID, event.IPRecordID)
}

func TestEnterStageUsesBusinessDayPolicies(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) // Friday

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	record := createTestRecord(t, db, applicant.UserID, models.StatusPreparingMaterials)

	policies := &stubPolicies{policies: map[string]*models.WorkflowSLAPolicy{
		models.StageMaterialsRequested: {Stage: models.StageMaterialsRequested, DurationDays: 10, BusinessDays: true},
	}}
	svc := NewStageService(db, policies)
	svc.now = func() time.Time { return now }

	instance, err := svc.EnterStage(record.RecordID, models.StageMaterialsRequested, nil, nil)
	require.NoError(t, err)

	// Ten business days from a Friday skip two weekends: 14 calendar days.
	assert.Equal(t, now.AddDate(0, 0, 14), instance.DueAt)
}

func TestEnterStageDefaultsMaterialsToTenBusinessDays(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC) // Friday

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	record := createTestRecord(t, db, applicant.UserID, models.StatusPreparingMaterials)

	svc := NewStageService(db, &stubPolicies{})
	svc.now = func() time.Time { return now }

	instance, err := svc.EnterStage(record.RecordID, models.StageMaterialsRequested, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, 14), instance.DueAt)
}

func TestEnterStageClosesThePreviousInstance(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	supervisor := createTestUser(t, db, "supervisor", models.RoleSupervisor)
	evaluator := createTestUser(t, db, "evaluator", models.RoleEvaluator)
	record := createTestRecord(t, db, applicant.UserID, models.StatusWaitingSupervisor)

	svc := NewStageService(db, &stubPolicies{})
	svc.now = func() time.Time { return now }

	first, err := svc.EnterStage(record.RecordID, models.StageSupervisorReview, &supervisor.UserID, nil)
	require.NoError(t, err)
	second, err := svc.EnterStage(record.RecordID, models.StageEvaluation, &evaluator.UserID, nil)
	require.NoError(t, err)

	var closed models.WorkflowStageInstance
	require.NoError(t, db.First(&closed, first.InstanceID).Error)
	assert.Equal(t, models.StageStatusCompleted, closed.Status)

	// Exactly one open instance remains.
	var open []models.WorkflowStageInstance
	require.NoError(t, db.Where("ip_record_id = ? AND status = ?", record.RecordID, models.StageStatusActive).
		Find(&open).Error)
	require.Len(t, open, 1)
	assert.Equal(t, second.InstanceID, open[0].InstanceID)
}

func TestCompleteStageClosesOpenInstances(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	supervisor := createTestUser(t, db, "supervisor", models.RoleSupervisor)
	record := createTestRecord(t, db, applicant.UserID, models.StatusWaitingSupervisor)

	svc := NewStageService(db, &stubPolicies{})
	svc.now = func() time.Time { return now }

	instance, err := svc.EnterStage(record.RecordID, models.StageSupervisorReview, &supervisor.UserID, nil)
	require.NoError(t, err)

	require.NoError(t, svc.CompleteStage(record.RecordID, &supervisor.UserID, "approved"))

	var closed models.WorkflowStageInstance
	require.NoError(t, db.First(&closed, instance.InstanceID).Error)
	assert.Equal(t, models.StageStatusCompleted, closed.Status)

	active, err := svc.ActiveInstance(record.RecordID)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestHistoryKeepsEveryInstance(t *testing.T) {
	db := newTestDB(t)

	applicant := createTestUser(t, db, "applicant", models.RoleApplicant)
	supervisor := createTestUser(t, db, "supervisor", models.RoleSupervisor)
	record := createTestRecord(t, db, applicant.UserID, models.StatusWaitingSupervisor)

	svc := NewStageService(db, &stubPolicies{})

	_, err := svc.EnterStage(record.RecordID, models.StageSupervisorReview, &supervisor.UserID, nil)
	require.NoError(t, err)
	_, err = svc.EnterStage(record.RecordID, models.StageRevisionRequested, nil, nil)
	require.NoError(t, err)
	_, err = svc.EnterStage(record.RecordID, models.StageSupervisorReview, &supervisor.UserID, nil)
	require.NoError(t, err)

	history, err := svc.History(record.RecordID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.StageStatusCompleted, history[0].Status)
	assert.Equal(t, models.StageStatusCompleted, history[1].Status)
	assert.Equal(t, models.StageStatusActive, history[2].Status)
}
