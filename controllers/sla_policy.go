package controllers

import (
	"net/http"

	"ip-management-api/models"

	"github.com/gin-gonic/gin"
)

type slaPolicyRequest struct {
	Stage           string `json:"stage" binding:"required"`
	DurationDays    int    `json:"duration_days" binding:"required"`
	GraceDays       int    `json:"grace_days"`
	BusinessDays    bool   `json:"business_days"`
	AllowExtensions bool   `json:"allow_extensions"`
	MaxExtensions   int    `json:"max_extensions"`
	ExtensionDays   int    `json:"extension_days"`
}

// GetSLAPolicies lists all policies, active and retired.
func GetSLAPolicies(c *gin.Context) {
	initServices()

	policies, err := policySvc.ListPolicies()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "policies": policies, "total": len(policies)})
}

// CreateSLAPolicy installs a new active policy for a stage, retiring the
// previous one.
func CreateSLAPolicy(c *gin.Context) {
	initServices()

	var req slaPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := models.WorkflowSLAPolicy{
		Stage:           req.Stage,
		DurationDays:    req.DurationDays,
		GraceDays:       req.GraceDays,
		BusinessDays:    req.BusinessDays,
		AllowExtensions: req.AllowExtensions,
		MaxExtensions:   req.MaxExtensions,
		ExtensionDays:   req.ExtensionDays,
	}
	if err := policySvc.CreatePolicy(&policy); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "policy": policy})
}

// UpdateSLAPolicy edits the deadline and extension knobs of a policy.
func UpdateSLAPolicy(c *gin.Context) {
	initServices()

	policyID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid policy ID"})
		return
	}

	var req slaPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{
		"duration_days":    req.DurationDays,
		"grace_days":       req.GraceDays,
		"business_days":    req.BusinessDays,
		"allow_extensions": req.AllowExtensions,
		"max_extensions":   req.MaxExtensions,
		"extension_days":   req.ExtensionDays,
	}
	if err := policySvc.UpdatePolicy(policyID, updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeactivateSLAPolicy retires a policy; instances created under it keep
// their deadlines.
func DeactivateSLAPolicy(c *gin.Context) {
	initServices()

	policyID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid policy ID"})
		return
	}

	if err := policySvc.DeactivatePolicy(policyID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
