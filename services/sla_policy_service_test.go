package services

import (
	"testing"

	"ip-management-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivePolicyFailsOpenWhenMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	policy, err := svc.ActivePolicy(models.StageSupervisorReview)
	require.NoError(t, err)
	assert.Nil(t, policy)
}

func TestActivePolicyReturnsOnlyActiveRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	retired := models.WorkflowSLAPolicy{Stage: models.StageEvaluation, DurationDays: 30, GraceDays: 5}
	createPolicy(t, db, retired)
	require.NoError(t, db.Model(&models.WorkflowSLAPolicy{}).
		Where("stage = ?", models.StageEvaluation).
		Update("is_active", false).Error)
	createPolicy(t, db, models.WorkflowSLAPolicy{Stage: models.StageEvaluation, DurationDays: 14, GraceDays: 2})

	policy, err := svc.ActivePolicy(models.StageEvaluation)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, 14, policy.DurationDays)
	assert.Equal(t, 2, policy.GraceDays)
}

func TestActivePolicyCachesAbsence(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	policy, err := svc.ActivePolicy(models.StageRevisionRequested)
	require.NoError(t, err)
	require.Nil(t, policy)

	// A row created behind the cache's back is not seen until invalidation.
	createPolicy(t, db, models.WorkflowSLAPolicy{Stage: models.StageRevisionRequested, DurationDays: 7})

	policy, err = svc.ActivePolicy(models.StageRevisionRequested)
	require.NoError(t, err)
	assert.Nil(t, policy)

	svc.ClearCache()
	policy, err = svc.ActivePolicy(models.StageRevisionRequested)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, 7, policy.DurationDays)
}

func TestCreatePolicyRetiresPreviousActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	first := models.WorkflowSLAPolicy{Stage: models.StageMaterialsRequested, DurationDays: 10, BusinessDays: true}
	require.NoError(t, svc.CreatePolicy(&first))

	second := models.WorkflowSLAPolicy{Stage: models.StageMaterialsRequested, DurationDays: 15, BusinessDays: true, GraceDays: 2}
	require.NoError(t, svc.CreatePolicy(&second))

	var active []models.WorkflowSLAPolicy
	require.NoError(t, db.Where("stage = ? AND is_active = ?", models.StageMaterialsRequested, true).
		Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, 15, active[0].DurationDays)

	// Cache was invalidated by the create.
	policy, err := svc.ActivePolicy(models.StageMaterialsRequested)
	require.NoError(t, err)
	require.NotNil(t, policy)
	assert.Equal(t, 15, policy.DurationDays)
}

func TestCreatePolicyValidatesInput(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	err := svc.CreatePolicy(&models.WorkflowSLAPolicy{Stage: "", DurationDays: 7})
	assert.Error(t, err)

	err = svc.CreatePolicy(&models.WorkflowSLAPolicy{Stage: models.StageEvaluation, DurationDays: 0})
	assert.Error(t, err)

	err = svc.CreatePolicy(&models.WorkflowSLAPolicy{Stage: models.StageEvaluation, DurationDays: 7, GraceDays: -1})
	assert.Error(t, err)
}

func TestDeactivatePolicy(t *testing.T) {
	db := newTestDB(t)
	svc := NewSLAPolicyService(db)

	policy := models.WorkflowSLAPolicy{Stage: models.StageSupervisorReview, DurationDays: 7}
	require.NoError(t, svc.CreatePolicy(&policy))
	require.NoError(t, svc.DeactivatePolicy(policy.PolicyID))

	resolved, err := svc.ActivePolicy(models.StageSupervisorReview)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	assert.Error(t, svc.DeactivatePolicy(99999))
}
