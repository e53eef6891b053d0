package controllers

import (
	"net/http"
	"time"

	"ip-management-api/config"
	"ip-management-api/models"
	"ip-management-api/services"
	"ip-management-api/utils"

	"github.com/gin-gonic/gin"
)

// RequestMaterials (admin) asks the applicant for presentation materials
// after evaluation approval. Opens the applicant-facing materials stage with
// its business-day deadline.
func RequestMaterials(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	adminID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND delete_at IS NULL", recordID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusEvaluatorApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Materials can only be requested after evaluation approval"})
		return
	}

	materials, err := materialsSvc.RequestMaterials(record.RecordID, adminID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := updateRecordStatus(&record, models.StatusPreparingMaterials, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := stageSvc.EnterStage(record.RecordID, models.StageMaterialsRequested, nil, &adminID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	deadline, err := materialsSvc.Deadline(*materials.MaterialsRequestedAt)
	if err == nil {
		notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
			"Presentation materials requested",
			"Please submit your scientific poster and IMRaD short paper by "+
				deadline.Format("Jan 2, 2006")+".")
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "materials": materials, "deadline": deadline})
}

// SubmitMaterials (applicant) records the uploaded poster and paper.
func SubmitMaterials(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	userID, _ := getCurrentUserID(c)

	var req struct {
		PosterURL      string `json:"poster_url" binding:"required"`
		PosterName     string `json:"poster_name" binding:"required"`
		PosterSize     int64  `json:"poster_size" binding:"required"`
		PosterMimeType string `json:"poster_mime_type" binding:"required"`
		PaperURL       string `json:"paper_url" binding:"required"`
		PaperName      string `json:"paper_name" binding:"required"`
		PaperSize      int64  `json:"paper_size" binding:"required"`
		PaperMimeType  string `json:"paper_mime_type" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateMaterialsFile("poster", req.PosterMimeType, req.PosterSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateMaterialsFile("paper", req.PaperMimeType, req.PaperSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND applicant_id = ? AND delete_at IS NULL", recordID, userID).
		First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if record.Status != models.StatusPreparingMaterials {
		c.JSON(http.StatusConflict, gin.H{"error": "Materials are not currently requested for this record"})
		return
	}

	materials, err := materialsSvc.SubmitMaterials(record.RecordID, userID, services.MaterialsFiles{
		PosterURL:  req.PosterURL,
		PosterName: req.PosterName,
		PosterSize: req.PosterSize,
		PaperURL:   req.PaperURL,
		PaperName:  req.PaperName,
		PaperSize:  req.PaperSize,
	})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if err := updateRecordStatus(&record, models.StatusReadyForFiling, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := stageSvc.EnterStage(record.RecordID, models.StageCompletion, nil, &userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "materials": materials, "status": models.StatusReadyForFiling})
}

// RejectMaterials (admin) clears a submission and re-arms the request.
func RejectMaterials(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}
	adminID, _ := getCurrentUserID(c)

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND delete_at IS NULL", recordID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}

	materials, err := materialsSvc.RejectMaterials(record.RecordID)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	if err := updateRecordStatus(&record, models.StatusPreparingMaterials, nil); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if _, err := stageSvc.EnterStage(record.RecordID, models.StageMaterialsRequested, nil, &adminID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	notifyStatusChange(record.ApplicantID, record.RecordID, record.Title,
		"Materials need to be resubmitted",
		"Your presentation materials were not accepted. Please revise and resubmit.")

	c.JSON(http.StatusOK, gin.H{"success": true, "materials": materials})
}

// GetMaterials returns the materials record plus deadline bookkeeping.
func GetMaterials(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	var record models.IPRecord
	if err := config.DB.Where("record_id = ? AND delete_at IS NULL", recordID).First(&record).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
		return
	}
	if !canViewRecord(c, &record) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	materials, err := materialsSvc.GetMaterials(record.RecordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if materials == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "materials": nil, "status": models.MaterialsNotRequested})
		return
	}

	resp := gin.H{"success": true, "materials": materials, "status": materials.Status}
	if materials.MaterialsRequestedAt != nil {
		var deadline time.Time
		if deadline, err = materialsSvc.Deadline(*materials.MaterialsRequestedAt); err == nil {
			resp["deadline"] = deadline
			if remaining, err := materialsSvc.DaysRemaining(*materials.MaterialsRequestedAt); err == nil {
				resp["days_remaining"] = remaining
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
