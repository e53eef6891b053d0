package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"ip-management-api/config"
	"ip-management-api/models"
	"ip-management-api/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var validCategories = map[string]bool{
	"patent":       true,
	"petty_patent": true,
	"copyright":    true,
	"trademark":    true,
}

type recordRequest struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description"`
	Category     string `json:"category" binding:"required"`
	SupervisorID *int   `json:"supervisor_id"`
	DepartmentID *int   `json:"department_id"`
}

// CreateIPRecord creates a draft disclosure for the calling applicant.
func CreateIPRecord(c *gin.Context) {
	initServices()

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validCategories[req.Category] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	userID, _ := getCurrentUserID(c)

	record := models.IPRecord{
		Title:        utils.SanitizeInput(req.Title),
		Description:  utils.SanitizeInput(req.Description),
		Category:     req.Category,
		Status:       models.StatusDraft,
		ApplicantID:  userID,
		SupervisorID: req.SupervisorID,
		DepartmentID: req.DepartmentID,
		CreateAt:     time.Now(),
	}

	if err := config.DB.Create(&record).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create record"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "record": record})
}

// UpdateIPRecord lets the applicant edit a record while it is still a draft
// or sent back for revision.
func UpdateIPRecord(c *gin.Context) {
	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND applicant_id = ? AND delete_at IS NULL", recordID, userID).
		First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	editable := map[string]bool{
		models.StatusDraft:              true,
		models.StatusSupervisorRevision: true,
		models.StatusEvaluatorRevision:  true,
	}
	if !editable[record.Status] {
		c.JSON(http.StatusConflict, gin.H{"error": "Record cannot be edited in its current status"})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"title":       utils.SanitizeInput(req.Title),
		"description": utils.SanitizeInput(req.Description),
		"category":    req.Category,
		"update_at":   &now,
	}
	if req.SupervisorID != nil {
		updates["supervisor_id"] = req.SupervisorID
	}
	if err := config.DB.Model(&record).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SubmitIPRecord moves a draft into supervisor review and opens the first
// reviewer stage instance.
func SubmitIPRecord(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND applicant_id = ? AND delete_at IS NULL", recordID, userID).
		First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft records can be submitted"})
		return
	}
	if record.SupervisorID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A supervisor must be selected before submission"})
		return
	}

	now := time.Now()
	if err := config.DB.Model(&record).Updates(map[string]interface{}{
		"status":       models.StatusWaitingSupervisor,
		"submitted_at": &now,
		"update_at":    &now,
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit record"})
		return
	}

	if _, err := stageSvc.EnterStage(record.RecordID, models.StageSupervisorReview, record.SupervisorID, &userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	notifyStatusChange(*record.SupervisorID, record.RecordID, record.Title,
		"New submission awaiting your review",
		"A new IP disclosure has been submitted and is waiting for your supervisor review.")

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.StatusWaitingSupervisor})
}

// GetIPRecords lists records scoped to the caller's role: applicants see
// their own, supervisors and evaluators see their assignments, admins see
// everything.
func GetIPRecords(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	query := config.DB.Preload("Applicant").Preload("Supervisor").Preload("Evaluator").
		Where("delete_at IS NULL")

	switch roleID {
	case models.RoleApplicant:
		query = query.Where("applicant_id = ?", userID)
	case models.RoleSupervisor:
		query = query.Where("supervisor_id = ?", userID)
	case models.RoleEvaluator:
		query = query.Where("evaluator_id = ?", userID)
	case models.RoleAdmin:
		// no scoping
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
		return
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var records []models.IPRecord
	if err := query.Order("record_id DESC").Find(&records).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "records": records, "total": len(records)})
}

// GetIPRecord returns one record with its stage history.
func GetIPRecord(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	var record models.IPRecord
	err := config.DB.Preload("Applicant").Preload("Supervisor").Preload("Evaluator").
		Where("record_id = ? AND delete_at IS NULL", recordID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch record"})
		return
	}

	if !canViewRecord(c, &record) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	stages, err := stageSvc.History(record.RecordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "record": record, "stages": stages})
}

// DeleteIPRecord soft-deletes a draft.
func DeleteIPRecord(c *gin.Context) {
	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	now := time.Now()
	result := config.DB.Model(&models.IPRecord{}).
		Where("record_id = ? AND applicant_id = ? AND status = ? AND delete_at IS NULL",
			recordID, userID, models.StatusDraft).
		Update("delete_at", &now)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete record"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft record not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func canViewRecord(c *gin.Context, record *models.IPRecord) bool {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	switch roleID {
	case models.RoleAdmin:
		return true
	case models.RoleApplicant:
		return record.ApplicantID == userID
	case models.RoleSupervisor:
		return record.SupervisorID != nil && *record.SupervisorID == userID
	case models.RoleEvaluator:
		return record.EvaluatorID != nil && *record.EvaluatorID == userID
	}
	return false
}

func notifyStatusChange(userID, recordID int, recordTitle, title, message string) {
	payload := map[string]interface{}{"ip_record_id": recordID, "title": recordTitle}
	if err := notifySvc.Dispatch(userID, "status_change", title, message, payload, &recordID); err != nil {
		// Notifications never block the workflow action itself.
		log.Printf("[records] Notification failed for user %d: %v", userID, err)
	}
}
