package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAlreadyProcessing = errors.New("alt-text run already in progress")

// GenerateService runs the alt-text pass over a project's pending images in
// the background. The project status acts as the concurrency guard: only one
// run per project at a time.
type GenerateService struct {
	db         *gorm.DB
	generator  AltTextGenerator
	logService LogWriter
}

func NewGenerateService(db *gorm.DB, generator AltTextGenerator, logService LogWriter) (*GenerateService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if generator == nil {
		return nil, errors.New("alt-text generator is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &GenerateService{
		db:         db,
		generator:  generator,
		logService: logService,
	}, nil
}

// Start marks the project as processing and launches the run detached from
// the request context, so the HTTP response returns immediately.
func (s *GenerateService) Start(ctx context.Context, userID uint, projectID uint) error {
	if s == nil {
		return errors.New("generate service is nil")
	}

	var project models.Project
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	if project.Status == models.ProjectStatusProcessing {
		return ErrAlreadyProcessing
	}

	if err := s.db.WithContext(ctx).Model(&project).Update("status", models.ProjectStatusProcessing).Error; err != nil {
		return fmt.Errorf("mark project processing: %w", err)
	}

	eventID := uuid.NewString()
	go s.run(context.Background(), project.ID, eventID)

	return nil
}

func (s *GenerateService) run(ctx context.Context, projectID uint, eventID string) {
	startMsg := fmt.Sprintf("project=%d alt-text run started", projectID)
	_ = s.logService.CreateLog(ctx, &eventID, LogActionAltTextRun, LogOutcomeSuccess, &startMsg)

	var images []models.Image
	err := s.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, models.ImageStatusPending).
		Order("page_number, image_index").Find(&images).Error
	if err != nil {
		failMsg := fmt.Sprintf("project=%d load pending images: %v", projectID, err)
		_ = s.logService.CreateLog(ctx, &eventID, LogActionAltTextRun, LogOutcomeFail, &failMsg)
		return
	}

	processed := 0
	for _, img := range images {
		if err := s.db.WithContext(ctx).Model(&img).Update("status", models.ImageStatusProcessing).Error; err != nil {
			continue
		}

		result, err := s.generator.Generate(ctx, img.ImagePath, img.ContextText, &eventID)
		if err != nil {
			result = AltTextResult{
				ImageType:  imageTypeError,
				AltText:    fmt.Sprintf("Fehler bei der Analyse: %v", err),
				Confidence: defaultConfidence,
			}
		}
		if result.Confidence == "" {
			result.Confidence = defaultConfidence
		}

		updates := map[string]interface{}{
			"alt_text":   result.AltText,
			"image_type": result.ImageType,
			"confidence": result.Confidence,
			"status":     models.ImageStatusDone,
		}
		if err := s.db.WithContext(ctx).Model(&img).Updates(updates).Error; err != nil {
			continue
		}

		processed++
		_ = s.db.WithContext(ctx).Model(&models.Project{}).
			Where("id = ?", projectID).Update("processed_images", processed).Error
	}

	finish := map[string]interface{}{
		"status":     models.ProjectStatusDone,
		"updated_at": time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Updates(finish).Error; err != nil {
		failMsg := fmt.Sprintf("project=%d finish run: %v", projectID, err)
		_ = s.logService.CreateLog(ctx, &eventID, LogActionAltTextRun, LogOutcomeFail, &failMsg)
		return
	}

	doneMsg := fmt.Sprintf("project=%d images=%d alt-text run finished", projectID, processed)
	_ = s.logService.CreateLog(ctx, &eventID, LogActionAltTextRun, LogOutcomeSuccess, &doneMsg)
}
