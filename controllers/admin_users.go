package controllers

import (
	"net/http"
	"time"

	"ip-management-api/config"
	"ip-management-api/models"
	"ip-management-api/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RegisterUser creates a pending applicant account. Admin approval is
// required before login succeeds.
func RegisterUser(c *gin.Context) {
	var req struct {
		FullName     string `json:"full_name" binding:"required"`
		Email        string `json:"email" binding:"required,email"`
		Password     string `json:"password" binding:"required,min=8"`
		DepartmentID *int   `json:"department_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
		return
	}

	var count int64
	config.DB.Model(&models.User{}).Where("email = ? AND delete_at IS NULL", req.Email).Count(&count)
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email is already registered"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	now := time.Now()
	user := models.User{
		FullName:     utils.SanitizeInput(req.FullName),
		Email:        req.Email,
		Password:     string(hashed),
		RoleID:       models.RoleApplicant,
		DepartmentID: req.DepartmentID,
		IsApproved:   false,
		CreateAt:     &now,
	}
	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Registration received, pending approval"})
}

// GetPendingApplicants lists unapproved accounts (admin).
func GetPendingApplicants(c *gin.Context) {
	var users []models.User
	if err := config.DB.Preload("Department").
		Where("is_approved = ? AND delete_at IS NULL", false).
		Order("user_id ASC").
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pending applicants"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

// ApproveApplicant flips an account to approved (admin).
func ApproveApplicant(c *gin.Context) {
	userID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	now := time.Now()
	result := config.DB.Model(&models.User{}).
		Where("user_id = ? AND is_approved = ? AND delete_at IS NULL", userID, false).
		Updates(map[string]interface{}{"is_approved": true, "update_at": &now})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to approve user"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pending user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetUsers lists accounts, optionally filtered by role (admin).
func GetUsers(c *gin.Context) {
	query := config.DB.Preload("Role").Preload("Department").Where("delete_at IS NULL")
	if role := c.Query("role_id"); role != "" {
		query = query.Where("role_id = ?", role)
	}

	var users []models.User
	if err := query.Order("user_id ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "users": users, "total": len(users)})
}

// UpdateUserRole changes a user's role, e.g. promoting a supervisor to
// evaluator (admin).
func UpdateUserRole(c *gin.Context) {
	userID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req struct {
		RoleID int `json:"role_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.RoleID < models.RoleApplicant || req.RoleID > models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
		return
	}

	now := time.Now()
	result := config.DB.Model(&models.User{}).
		Where("user_id = ? AND delete_at IS NULL", userID).
		Updates(map[string]interface{}{"role_id": req.RoleID, "update_at": &now})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetDepartments lists active departments.
func GetDepartments(c *gin.Context) {
	var departments []models.Department
	if err := config.DB.Where("delete_at IS NULL").Order("department_name ASC").
		Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch departments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "departments": departments})
}

// CreateDepartment adds a department (admin).
func CreateDepartment(c *gin.Context) {
	var req struct {
		DepartmentName string `json:"department_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	department := models.Department{
		DepartmentName: utils.SanitizeInput(req.DepartmentName),
		IsActive:       true,
		CreateAt:       &now,
	}
	if err := config.DB.Create(&department).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create department"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "department": department})
}

// DeleteDepartment soft-deletes a department (admin).
func DeleteDepartment(c *gin.Context) {
	departmentID, ok := paramInt(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid department ID"})
		return
	}

	now := time.Now()
	result := config.DB.Model(&models.Department{}).
		Where("department_id = ? AND delete_at IS NULL", departmentID).
		Updates(map[string]interface{}{"delete_at": &now, "is_active": false})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete department"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Department not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
