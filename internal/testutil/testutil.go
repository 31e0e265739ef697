// Package testutil holds shared fixtures for package tests: an in-memory
// sqlite database with the full schema, and credential-store seeding
// helpers.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/trackboard/trackboard/internal/config"
	"github.com/trackboard/trackboard/internal/hash"
	"github.com/trackboard/trackboard/internal/models"
)

// OpenDB returns a migrated in-memory database. One connection only, so
// every query sees the same memory store.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := config.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateRole creates a role carrying the named permissions, creating the
// permissions as needed.
func CreateRole(t *testing.T, db *gorm.DB, name string, permNames ...string) models.Role {
	t.Helper()

	perms := make([]models.Permission, 0, len(permNames))
	for _, pn := range permNames {
		perm := models.Permission{Name: pn}
		if err := db.Where("name = ?", pn).FirstOrCreate(&perm).Error; err != nil {
			t.Fatalf("create permission %s: %v", pn, err)
		}
		perms = append(perms, perm)
	}

	role := models.Role{Name: name}
	if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
		t.Fatalf("create role %s: %v", name, err)
	}
	if len(perms) > 0 {
		if err := db.Model(&role).Association("Permissions").Replace(perms); err != nil {
			t.Fatalf("assign permissions: %v", err)
		}
	}
	return role
}

// CreateUser stores a user with a bcrypt-hashed password and the given
// roles.
func CreateUser(t *testing.T, db *gorm.DB, email, password, name string, roles ...models.Role) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{Email: email, PasswordHash: pwHash, Name: name}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	if len(roles) > 0 {
		if err := db.Model(&user).Association("Roles").Append(&roles); err != nil {
			t.Fatalf("assign roles: %v", err)
		}
	}
	return &user
}
