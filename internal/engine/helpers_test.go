package engine

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diwanhq/murasalat/backend/internal/models"
)

// newTestDB opens a named in-memory sqlite database and migrates the full
// schema. Each test gets its own database; one connection keeps sqlite's
// writer lock out of the way.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Department{},
		&models.Category{},
		&models.Document{},
		&models.DocumentDepartment{},
		&models.DocumentSeen{},
		&models.Notification{},
		&models.ActivityLog{},
		&models.ReferenceCounter{},
	))
	return db
}

func createUser(t *testing.T, db *gorm.DB, name string, role models.Role, departmentID *string) *models.User {
	t.Helper()
	user := &models.User{
		FullName:     name,
		Email:        strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.org",
		Password:     "x",
		Role:         role,
		DepartmentID: departmentID,
		IsActive:     true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createDepartment(t *testing.T, db *gorm.DB, name string) *models.Department {
	t.Helper()
	dept := &models.Department{Name: name, IsActive: true}
	require.NoError(t, db.Create(dept).Error)
	return dept
}

func createCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	cat := &models.Category{Name: name, IsActive: true}
	require.NoError(t, db.Create(cat).Error)
	return cat
}

// newEngine builds the full component set over one database.
func newEngine(db *gorm.DB) (*Allocator, *Ledger, *Fanout, *Workflow, *Coordinator, *SeenTracker) {
	allocator := NewAllocator(db, "DOC")
	ledger := NewLedger(db)
	fanout := NewFanout(db, nil, nil)
	workflow := NewWorkflow(db, ledger, fanout)
	coordinator := NewCoordinator(db, allocator, ledger, fanout)
	seen := NewSeenTracker(db)
	return allocator, ledger, fanout, workflow, coordinator, seen
}

func actorFor(user *models.User) Actor {
	return Actor{ID: user.ID, Role: user.Role, DepartmentID: user.DepartmentID}
}

// createDraftDocument inserts a document directly in DRAFT, bypassing the
// coordinator, for tests that need full control over the starting state.
func createDraftDocument(t *testing.T, db *gorm.DB, ref string, category *models.Category, creator *models.User) *models.Document {
	t.Helper()
	doc := &models.Document{
		ReferenceNumber: ref,
		Subject:         "test subject",
		SenderName:      "sender",
		Status:          models.StatusDraft,
		Priority:        models.PriorityNormal,
		CategoryID:      category.ID,
		CreatedByID:     creator.ID,
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}
