package routes

import (
	"ip-management-api/controllers"
	"ip-management-api/middleware"
	"ip-management-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)
			public.POST("/register", controllers.RegisterUser)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "IP Management API is running",
				})
			})

			// Sweep trigger for external cron (shared secret header)
			public.POST("/workflow/check-overdue/cron",
				controllers.CronAuthMiddleware(), controllers.CheckOverdueStages)
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Common endpoints (all authenticated users)
			protected.GET("/departments", controllers.GetDepartments)

			// IP records
			records := protected.Group("/ip-records")
			{
				records.GET("", controllers.GetIPRecords)
				records.GET("/:id", controllers.GetIPRecord)
				records.GET("/:id/stages", controllers.GetStageHistory)
				records.GET("/:id/materials", controllers.GetMaterials)

				// Applicant actions
				records.POST("", middleware.RequireRole(models.RoleApplicant), controllers.CreateIPRecord)
				records.PUT("/:id", middleware.RequireRole(models.RoleApplicant), controllers.UpdateIPRecord)
				records.DELETE("/:id", middleware.RequireRole(models.RoleApplicant), controllers.DeleteIPRecord)
				records.POST("/:id/submit", middleware.RequireRole(models.RoleApplicant), controllers.SubmitIPRecord)
				records.POST("/:id/resubmit", middleware.RequireRole(models.RoleApplicant), controllers.ResubmitAfterRevision)
				records.POST("/:id/materials/submit", middleware.RequireRole(models.RoleApplicant), controllers.SubmitMaterials)

				// Reviewer decisions
				records.POST("/:id/supervisor-decision", middleware.RequireRole(models.RoleSupervisor), controllers.SupervisorDecision)
				records.POST("/:id/evaluator-decision", middleware.RequireRole(models.RoleEvaluator), controllers.EvaluatorDecision)

				// Admin actions
				records.POST("/:id/materials/request", middleware.RequireRole(models.RoleAdmin), controllers.RequestMaterials)
				records.POST("/:id/materials/reject", middleware.RequireRole(models.RoleAdmin), controllers.RejectMaterials)
				records.POST("/:id/complete", middleware.RequireRole(models.RoleAdmin), controllers.CompleteRecord)
			}

			// Stage instance administration
			stages := protected.Group("/stages")
			{
				stages.POST("/:id/extend", middleware.RequireRole(models.RoleAdmin), controllers.ExtendStageDeadline)
			}

			// SLA policies (admin)
			policies := protected.Group("/sla-policies")
			policies.Use(middleware.RequireRole(models.RoleAdmin))
			{
				policies.GET("", controllers.GetSLAPolicies)
				policies.POST("", controllers.CreateSLAPolicy)
				policies.PUT("/:id", controllers.UpdateSLAPolicy)
				policies.DELETE("/:id", controllers.DeactivateSLAPolicy)
			}

			// Workflow sweep trigger (admin)
			protected.POST("/workflow/check-overdue",
				middleware.RequireRole(models.RoleAdmin), controllers.CheckOverdueStages)

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
			}

			// User administration (admin)
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireRole(models.RoleAdmin))
			{
				admin.GET("/users", controllers.GetUsers)
				admin.PUT("/users/:id/role", controllers.UpdateUserRole)
				admin.GET("/pending-applicants", controllers.GetPendingApplicants)
				admin.POST("/pending-applicants/:id/approve", controllers.ApproveApplicant)
				admin.POST("/departments", controllers.CreateDepartment)
				admin.DELETE("/departments/:id", controllers.DeleteDepartment)
			}
		}
	}
}
