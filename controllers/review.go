package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"ip-management-api/config"
	"ip-management-api/models"

	"github.com/gin-gonic/gin"
)

type decisionRequest struct {
	Decision string `json:"decision" binding:"required"` // approve|revise|reject
	Comment  string `json:"comment"`
}

// SupervisorDecision handles approve/revise/reject from the assigned
// supervisor. Approval hands the record to the evaluator stage; a revision
// request opens an applicant-facing stage that can expire.
func SupervisorDecision(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND supervisor_id = ? AND delete_at IS NULL", recordID, userID).
		First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusWaitingSupervisor {
		c.JSON(http.StatusConflict, gin.H{"error": "Record is not waiting for supervisor review"})
		return
	}

	decision, comment, ok := bindDecision(c)
	if !ok {
		return
	}

	switch decision {
	case "approve":
		var req struct {
			EvaluatorID int `json:"evaluator_id"`
		}
		if err := c.ShouldBindBodyWithJSON(&req); err != nil || req.EvaluatorID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "evaluator_id is required to approve"})
			return
		}

		if err := updateRecordStatus(&record, models.StatusWaitingEvaluation, map[string]interface{}{
			"evaluator_id": req.EvaluatorID,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := stageSvc.EnterStage(record.RecordID, models.StageEvaluation, &req.EvaluatorID, &userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(req.EvaluatorID, record.RecordID, record.Title,
			"Submission assigned for evaluation",
			"A supervisor-approved IP disclosure is waiting for your technical evaluation.")
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Supervisor approved your submission",
			"Your submission passed supervisor review and moved to technical evaluation.")

	case "revise":
		if err := updateRecordStatus(&record, models.StatusSupervisorRevision, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := stageSvc.EnterStage(record.RecordID, models.StageRevisionRequested, nil, &userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Revision requested by your supervisor",
			revisionMessage(comment))

	case "reject":
		if err := updateRecordStatus(&record, models.StatusRejected, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := stageSvc.CompleteStage(record.RecordID, &userID, "Rejected at supervisor review"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Submission rejected",
			"Your submission was rejected at supervisor review. "+comment)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "decision": decision})
}

// EvaluatorDecision handles approve/revise/reject from the assigned
// evaluator. Approval leaves the record waiting for the materials request.
func EvaluatorDecision(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND evaluator_id = ? AND delete_at IS NULL", recordID, userID).
		First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusWaitingEvaluation {
		c.JSON(http.StatusConflict, gin.H{"error": "Record is not waiting for evaluation"})
		return
	}

	decision, comment, ok := bindDecision(c)
	if !ok {
		return
	}

	switch decision {
	case "approve":
		if err := updateRecordStatus(&record, models.StatusEvaluatorApproved, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := stageSvc.CompleteStage(record.RecordID, &userID, "Evaluation approved"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Evaluation approved",
			"Your submission passed technical evaluation. The IP office will request presentation materials next.")

	case "revise":
		if err := updateRecordStatus(&record, models.StatusEvaluatorRevision, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := stageSvc.EnterStage(record.RecordID, models.StageRevisionRequested, nil, &userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Revision requested by the evaluator",
			revisionMessage(comment))

	case "reject":
		if err := updateRecordStatus(&record, models.StatusRejected, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err := stageSvc.CompleteStage(record.RecordID, &userID, "Rejected at evaluation"); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Submission rejected",
			"Your submission was rejected at technical evaluation. "+comment)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "decision": decision})
}

// ResubmitAfterRevision lets the applicant send a revised record back to the
// stage that asked for changes.
func ResubmitAfterRevision(c *gin.Context) {
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

	switch record.Status {
	case models.StatusSupervisorRevision:
		if err := updateRecordStatus(&record, models.StatusWaitingSupervisor, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := stageSvc.EnterStage(record.RecordID, models.StageSupervisorReview, record.SupervisorID, &userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if record.SupervisorID != nil {
			notifyStatusChange(*record.SupervisorID, record.RecordID, record.Title,
				"Revised submission awaiting your review",
				"The applicant resubmitted after your revision request.")
		}
	case models.StatusEvaluatorRevision:
		if err := updateRecordStatus(&record, models.StatusWaitingEvaluation, nil); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if _, err := stageSvc.EnterStage(record.RecordID, models.StageEvaluation, record.EvaluatorID, &userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if record.EvaluatorID != nil {
			notifyStatusChange(*record.EvaluatorID, record.RecordID, record.Title,
				"Revised submission awaiting your evaluation",
				"The applicant resubmitted after your revision request.")
		}
	default:
		c.JSON(http.StatusConflict, gin.H{"error": "Record is not awaiting revision"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "status": record.Status})
}

// CompleteRecord marks a record ready-for-filing as completed (admin only).
func CompleteRecord(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND delete_at IS NULL", recordID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusReadyForFiling {
		c.JSON(http.StatusConflict, gin.H{"error": "Record is not ready for filing"})
		return
	}

	now := time.Now()
	if err := updateRecordStatus(&record, models.StatusCompleted, map[string]interface{}{
		"completed_at": &now,
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := stageSvc.CompleteStage(record.RecordID, &userID, "Record completed and filed"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
		"Your IP record is complete",
		"Your disclosure has finished the workflow and is filed. A certificate will follow.")

	c.JSON(http.StatusOK, gin.H{"success": true, "status": models.StatusCompleted})
}

func bindDecision(c *gin.Context) (decision, comment string, ok bool) {
	var req decisionRequest
	if err := c.ShouldBindBodyWithJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return "", "", false
	}

	decision = strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != "approve" && decision != "revise" && decision != "reject" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Decision must be 'approve', 'revise' or 'reject'"})
		return "", "", false
	}
	return decision, strings.TrimSpace(req.Comment), true
}

func updateRecordStatus(record *models.IPRecord, status string, extra map[string]interface{}) error {
	now := time.Now()
	updates := map[string]interface{}{"status": status, "update_at": &now}
	for k, v := range extra {
		updates[k] = v
	}
	if err := config.DB.Model(record).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update record status: %w", err)
	}
	record.Status = status
	return nil
}

func revisionMessage(comment string) string {
	msg := "Changes were requested on your submission. Please revise and resubmit before the deadline."
	if comment != "" {
		msg += "\n\nReviewer comment: " + comment
	}
	return msg
}
