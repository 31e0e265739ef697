// Seeds the baseline roles, permissions, the default organization and an
// initial admin account.
package main

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trackboard/trackboard/internal/config"
	"github.com/trackboard/trackboard/internal/hash"
	"github.com/trackboard/trackboard/internal/models"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := cfg.InitDB(ctx)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	if err := seed(db); err != nil {
		log.Fatalf("seed error: %v", err)
	}
	log.Println("seed complete")
}

func seed(db *gorm.DB) error {
	perms := []models.Permission{
		{Name: "read", Description: "Read access"},
		{Name: "write", Description: "Write access"},
		{Name: "delete", Description: "Delete access"},
		{Name: "admin", Description: "Administrative access"},
	}
	for i := range perms {
		if err := upsertByName(db, &perms[i], perms[i].Name); err != nil {
			return err
		}
	}

	adminRole := models.Role{Name: "admin", Description: "Administrator role with full access"}
	if err := upsertByName(db, &adminRole, adminRole.Name); err != nil {
		return err
	}
	if err := db.Model(&adminRole).Association("Permissions").Replace(perms); err != nil {
		return err
	}

	userRole := models.Role{Name: "user", Description: "Standard user role"}
	if err := upsertByName(db, &userRole, userRole.Name); err != nil {
		return err
	}
	if err := db.Model(&userRole).Association("Permissions").Replace([]models.Permission{perms[0]}); err != nil {
		return err
	}

	org := models.Organization{Name: "Default Organization"}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&org).Error; err != nil {
		return err
	}

	pwHash, err := hash.HashPassword("admin123")
	if err != nil {
		return err
	}
	admin := models.User{Email: "admin@example.com", PasswordHash: pwHash, Name: "Admin"}
	res := db.Where("email = ?", admin.Email).FirstOrCreate(&admin)
	if res.Error != nil {
		return res.Error
	}
	return db.Model(&admin).Association("Roles").Append(&adminRole)
}

func upsertByName[T any](db *gorm.DB, record *T, name string) error {
	return db.Where("name = ?", name).FirstOrCreate(record).Error
}
