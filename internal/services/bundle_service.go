package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/gorm"
)

// BundleService zips the extracted images of a project for download.
type BundleService struct {
	db *gorm.DB
}

func NewBundleService(db *gorm.DB) (*BundleService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}

	return &BundleService{db: db}, nil
}

func (s *BundleService) BuildZip(ctx context.Context, userID uint, projectID uint) ([]byte, string, error) {
	if s == nil {
		return nil, "", errors.New("bundle service is nil")
	}

	var project models.Project
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", ErrProjectNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("load project: %w", err)
	}

	var images []models.Image
	err = s.db.WithContext(ctx).Where("project_id = ?", project.ID).
		Order("page_number, image_index").Find(&images).Error
	if err != nil {
		return nil, "", fmt.Errorf("load images: %w", err)
	}

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)

	for _, img := range images {
		data, err := os.ReadFile(img.ImagePath)
		if err != nil {
			// Files can vanish between extraction and download.
			continue
		}

		entry, err := writer.Create(filepath.Base(img.ImagePath))
		if err != nil {
			_ = writer.Close()
			return nil, "", fmt.Errorf("create zip entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			_ = writer.Close()
			return nil, "", fmt.Errorf("write zip entry: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close zip: %w", err)
	}

	name := fmt.Sprintf("inkludocs_bilder_%d.zip", project.ID)
	return buf.Bytes(), name, nil
}
