package repo

import (
	"errors"
	"fmt"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(path string) (*gorm.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is empty")
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return db, nil
}

func Migrate(db *gorm.DB, adminEmail string, adminPassword string) error {
	if db == nil {
		return errors.New("db is nil")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Project{},
		&models.Image{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if err := ensureDefaultAdmin(db, adminEmail, adminPassword); err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}

	return nil
}

func ensureDefaultAdmin(db *gorm.DB, email string, password string) error {
	if db == nil {
		return errors.New("db is nil")
	}
	if email == "" {
		return errors.New("admin email is empty")
	}
	if password == "" {
		return errors.New("admin password is empty")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  "Administrator",
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("create default admin: %w", err)
	}

	return nil
}
