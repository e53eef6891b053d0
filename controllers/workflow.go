package controllers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"ip-management-api/services"

	"github.com/gin-gonic/gin"
)

// CheckOverdueStages is the sweep trigger: POST with no body, invoked by an
// external cron or an admin. Returns the sweep summary, 409 when another
// sweep holds the lease, 500 when the candidate fetch fails.
func CheckOverdueStages(c *gin.Context) {
	initServices()

	summary, err := sweepSvc.SweepOverdueStages()
	if err != nil {
		if errors.Is(err, services.ErrSweepInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error":     err.Error(),
				"timestamp": time.Now(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     err.Error(),
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// CronAuthMiddleware admits either an authenticated admin (handled upstream)
// or an external scheduler presenting the shared cron secret.
func CronAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := os.Getenv("CRON_SECRET")
		if secret != "" && c.GetHeader("X-Cron-Secret") == secret {
			c.Next()
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		c.Abort()
	}
}

// GetStageHistory lists every stage instance a record has passed through.
func GetStageHistory(c *gin.Context) {
	initServices()

	recordID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid record ID"})
		return
	}

	stages, err := stageSvc.History(recordID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "stages": stages, "total": len(stages)})
}

// ExtendStageDeadline (admin) grants one policy-bounded extension on a stage
// instance, reactivating it immediately.
func ExtendStageDeadline(c *gin.Context) {
	initServices()

	instanceID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid instance ID"})
		return
	}
	adminID, _ := getCurrentUserID(c)

	instance, err := extensionSvc.GrantExtension(instanceID, adminID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExtensionsNotAllowed),
			errors.Is(err, services.ErrExtensionsExhausted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "instance": instance})
}
