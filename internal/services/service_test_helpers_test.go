package services

import (
	"context"
	"testing"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.PasswordReset{},
		&models.Project{},
		&models.Image{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	user := models.User{
		Email:        email,
		PasswordHash: "x",
		DisplayName:  "Test User",
		IsActive:     true,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create test user: %v", err)
	}

	return &user
}

type loggedEntry struct {
	eventID *string
	action  string
	outcome string
	message *string
}

type stubLogWriter struct {
	entries []loggedEntry
}

func (s *stubLogWriter) CreateLog(ctx context.Context, eventID *string, action string, outcome string, message *string) error {
	var copiedEvent *string
	if eventID != nil {
		value := *eventID
		copiedEvent = &value
	}
	var copiedMsg *string
	if message != nil {
		value := *message
		copiedMsg = &value
	}

	s.entries = append(s.entries, loggedEntry{
		eventID: copiedEvent,
		action:  action,
		outcome: outcome,
		message: copiedMsg,
	})
	return nil
}

type stubUploadStore struct {
	savedPath  string
	resultsDir string
	saveErr    error
	removed    []uint
}

func (s *stubUploadStore) SaveUpload(userID uint, filename string, data []byte) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	return s.savedPath, nil
}

func (s *stubUploadStore) ProjectResultsDir(userID uint, projectID uint) (string, error) {
	return s.resultsDir, nil
}

func (s *stubUploadStore) RemoveProject(userID uint, projectID uint, originalPath string) error {
	s.removed = append(s.removed, projectID)
	return nil
}

func (s *stubUploadStore) RemoveUserData(userID uint) error {
	s.removed = append(s.removed, userID)
	return nil
}

type stubExtractor struct {
	images []ExtractedImage
	err    error
}

func (s *stubExtractor) ExtractImages(ctx context.Context, pdfPath string, outDir string) ([]ExtractedImage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.images, nil
}

type stubGenerator struct {
	result AltTextResult
	err    error
	calls  int
}

func (s *stubGenerator) Generate(ctx context.Context, imagePath string, contextText string, eventID *string) (AltTextResult, error) {
	s.calls++
	if s.err != nil {
		return AltTextResult{}, s.err
	}
	return s.result, nil
}

type stubTagger struct {
	altTexts map[int]string
	output   string
	err      error
}

func (s *stubTagger) WriteAltTexts(ctx context.Context, inputPath string, outputPath string, altTexts map[int]string) error {
	s.altTexts = altTexts
	s.output = outputPath
	return s.err
}
