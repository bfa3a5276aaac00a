package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/dkovalov/taskhub/internal/models"
	"github.com/dkovalov/taskhub/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.Task{},
		&models.Label{},
		&models.Comment{},
		&models.Attachment{},
		&models.VerificationToken{},
		&models.ActivityLog{},
	)
}

// AdminSeed describes the bootstrap administrator account created on first start.
type AdminSeed struct {
	Email    string
	Username string
	Password string
}

// SeedData creates the bootstrap administrator when no admin account exists.
func SeedData(db *gorm.DB, admin AdminSeed) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		return nil
	}
	if strings.TrimSpace(admin.Password) == "" {
		return errors.New("seed admin: password is required")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword(admin.Password)
	if err != nil {
		return err
	}

	username := strings.TrimSpace(admin.Username)
	if username == "" {
		username = "admin"
	}

	user := models.User{
		Email:    email,
		Username: username,
		Password: hashed,
		Role:     models.RoleAdmin,
	}
	return db.Create(&user).Error
}
