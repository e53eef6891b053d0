package controllers

import (
	"strconv"
	"sync"

	"ip-management-api/config"
	"ip-management-api/services"

	"github.com/gin-gonic/gin"
)

var (
	svcOnce      sync.Once
	policySvc    *services.SLAPolicyService
	stageSvc     *services.StageService
	extensionSvc *services.ExtensionService
	materialsSvc *services.MaterialsService
	notifySvc    *services.NotificationService
	sweepSvc     *services.SweepService
)

// Services returns the shared service set backed by config.DB, built once on
// first use.
func initServices() {
	svcOnce.Do(func() {
		db := config.DB
		policySvc = services.NewSLAPolicyService(db)
		stageSvc = services.NewStageService(db, policySvc)
		extensionSvc = services.NewExtensionService(db, policySvc)
		materialsSvc = services.NewMaterialsService(db, policySvc)
		notifySvc = services.NewNotificationService(db)
		sweepSvc = services.NewSweepService(db, policySvc, notifySvc)
	})
}

// SweeperForScheduler exposes the shared sweep service to cmd/api's
// background scheduler.
func SweeperForScheduler() *services.SweepService {
	initServices()
	return sweepSvc
}

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func getCurrentRoleID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("roleID"); ok {
		if id, ok := v.(int); ok {
			return id, true
		}
	}
	return 0, false
}

func paramInt(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
