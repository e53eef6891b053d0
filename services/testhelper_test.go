package services

import (
	"testing"
	"time"

	"ip-management-api/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the workflow schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A fresh pool connection would be a fresh empty :memory: database, so
	// pin the pool to a single connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Department{},
		&models.IPRecord{},
		&models.WorkflowStageInstance{},
		&models.WorkflowSLAPolicy{},
		&models.ProcessEvent{},
		&models.Notification{},
		&models.PresentationMaterials{},
		&models.SweepLease{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string, roleID int) *models.User {
	t.Helper()

	now := time.Now()
	user := &models.User{
		FullName:   name,
		Email:      name + "@example.edu",
		Password:   "x",
		RoleID:     roleID,
		IsApproved: true,
		CreateAt:   &now,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func createTestRecord(t *testing.T, db *gorm.DB, applicantID int, status string) *models.IPRecord {
	t.Helper()

	record := &models.IPRecord{
		Title:       "Solar cell coating process",
		Description: "A novel coating process",
		Category:    "patent",
		Status:      status,
		ApplicantID: applicantID,
		CreateAt:    time.Now(),
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("failed to create record: %v", err)
	}
	return record
}

func createStageInstance(t *testing.T, db *gorm.DB, recordID int, stage string, assigned *int, dueAt time.Time) *models.WorkflowStageInstance {
	t.Helper()

	instance := &models.WorkflowStageInstance{
		IPRecordID:     recordID,
		Stage:          stage,
		Status:         models.StageStatusActive,
		AssignedUserID: assigned,
		DueAt:          dueAt,
		CreateAt:       time.Now(),
	}
	if err := db.Create(instance).Error; err != nil {
		t.Fatalf("failed to create stage instance: %v", err)
	}
	return instance
}

func createPolicy(t *testing.T, db *gorm.DB, policy models.WorkflowSLAPolicy) *models.WorkflowSLAPolicy {
	t.Helper()

	policy.IsActive = true
	policy.CreateAt = time.Now()
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("failed to create policy: %v", err)
	}
	return &policy
}

// discardMailer is a MailFunc that records recipients without sending.
type discardMailer struct {
	sent [][]string
	err  error
}

func (m *discardMailer) send(to []string, subject, html string) error {
	m.sent = append(m.sent, to)
	return m.err
}
