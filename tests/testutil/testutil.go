package testutil

import (
	"os"
	"testing"

	"github.com/kendall-kelly/makanika-api/config"
	"github.com/kendall-kelly/makanika-api/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// TestPassword is the password of every user created with CreateUser
const TestPassword = "password123"

// RequireTestEnvironment ensures that tests are running in the test environment.
// This prevents accidental execution of tests against production or development databases.
// It will fail the test immediately if GO_ENV is not set to "test".
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	env := os.Getenv("GO_ENV")
	if env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: Tests must run with GO_ENV=test to prevent data loss. Current GO_ENV=%q. Set GO_ENV=test before running tests.", env)
	}
}

// MustSetTestEnvironment sets GO_ENV to test and fails if it cannot be set.
// Use this in TestMain or suite setup functions.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	if err := os.Setenv("GO_ENV", "test"); err != nil {
		t.Fatalf("Failed to set GO_ENV=test: %v", err)
	}

	// Verify it was set
	if os.Getenv("GO_ENV") != "test" {
		t.Fatal("Failed to verify GO_ENV=test")
	}
}

// NewTestDB opens a migrated in-memory SQLite database with the default roles seeded.
// The pool is capped at one connection so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig(true))
	require.NoError(t, err, "Failed to connect to test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db), "Failed to migrate test database")
	require.NoError(t, config.SeedRoles(db), "Failed to seed roles")
	return db
}

// FindRole loads a seeded role by name
func FindRole(t *testing.T, db *gorm.DB, name models.RoleName) models.Role {
	t.Helper()

	var role models.Role
	require.NoError(t, db.Where("name = ?", string(name)).First(&role).Error)
	return role
}

// CreateUser inserts a user holding role with password TestPassword
func CreateUser(t *testing.T, db *gorm.DB, name, email string, role models.RoleName) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	r := FindRole(t, db, role)
	user := models.User{
		Name:           name,
		Email:          email,
		HashedPassword: string(hash),
		RoleID:         r.ID,
	}
	require.NoError(t, db.Omit("Role").Create(&user).Error)
	user.Role = r
	return user
}

// CreateJob inserts a job directly, bypassing the job service
func CreateJob(t *testing.T, db *gorm.DB, job models.Job) models.Job {
	t.Helper()

	if job.Status == "" {
		job.Status = models.StatusCheckedIn
	}
	if job.Priority == 0 {
		job.Priority = models.PriorityLow
	}
	require.NoError(t, db.Omit("AssignedMechanic", "CreatedBy", "CustomerUser").Create(&job).Error)
	return job
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
