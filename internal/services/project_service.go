package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/gorm"
)

const MaxUploadSize = 50 * 1024 * 1024

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrImageNotFound   = errors.New("image not found")
	ErrNotPDF          = errors.New("file is not a pdf")
	ErrFileTooLarge    = errors.New("file exceeds upload limit")
	ErrExtractFailed   = errors.New("pdf extraction failed")
)

type ProjectService struct {
	db         *gorm.DB
	store      UploadStore
	extractor  ImageExtractor
	logService LogWriter
}

func NewProjectService(db *gorm.DB, store UploadStore, extractor ImageExtractor, logService LogWriter) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if store == nil {
		return nil, errors.New("upload store is nil")
	}
	if extractor == nil {
		return nil, errors.New("image extractor is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &ProjectService{
		db:         db,
		store:      store,
		extractor:  extractor,
		logService: logService,
	}, nil
}

// CreateFromUpload stores the original, extracts its images synchronously,
// and leaves the project in state "extracted" (or "error" when the PDF
// cannot be processed).
func (s *ProjectService) CreateFromUpload(ctx context.Context, userID uint, filename string, data []byte) (*models.Project, error) {
	if s == nil {
		return nil, errors.New("project service is nil")
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, ErrNotPDF
	}
	if len(data) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	path, err := s.store.SaveUpload(userID, filename, data)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	project := models.Project{
		UserID:       userID,
		Filename:     filename,
		OriginalPath: path,
		Status:       models.ProjectStatusExtracting,
	}
	if err := s.db.WithContext(ctx).Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	uploadMsg := fmt.Sprintf("project=%d user=%d file=%s bytes=%d", project.ID, userID, filename, len(data))
	_ = s.logService.CreateLog(ctx, nil, LogActionUpload, LogOutcomeSuccess, &uploadMsg)

	outDir, err := s.store.ProjectResultsDir(userID, project.ID)
	if err != nil {
		return nil, s.failExtraction(ctx, &project, fmt.Errorf("create results dir: %w", err))
	}

	images, err := s.extractor.ExtractImages(ctx, path, outDir)
	if err != nil {
		return nil, s.failExtraction(ctx, &project, err)
	}

	for _, img := range images {
		row := models.Image{
			ProjectID:   project.ID,
			PageNumber:  img.PageNumber,
			ImageIndex:  img.ImageIndex,
			ImagePath:   img.Path,
			ImageType:   "unknown",
			ContextText: img.ContextText,
			Width:       img.Width,
			Height:      img.Height,
			XRef:        img.XRef,
			Confidence:  defaultConfidence,
			Status:      models.ImageStatusPending,
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, s.failExtraction(ctx, &project, fmt.Errorf("store image row: %w", err))
		}
	}

	updates := map[string]interface{}{
		"status":       models.ProjectStatusExtracted,
		"total_images": len(images),
	}
	if err := s.db.WithContext(ctx).Model(&project).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("finish extraction: %w", err)
	}
	project.Status = models.ProjectStatusExtracted
	project.TotalImages = len(images)

	extractMsg := fmt.Sprintf("project=%d images=%d", project.ID, len(images))
	_ = s.logService.CreateLog(ctx, nil, LogActionExtract, LogOutcomeSuccess, &extractMsg)

	return &project, nil
}

func (s *ProjectService) failExtraction(ctx context.Context, project *models.Project, cause error) error {
	_ = s.db.WithContext(ctx).Model(project).Update("status", models.ProjectStatusError).Error

	msg := fmt.Sprintf("project=%d: %v", project.ID, cause)
	_ = s.logService.CreateLog(ctx, nil, LogActionExtract, LogOutcomeFail, &msg)

	return fmt.Errorf("%w: %v", ErrExtractFailed, cause)
}

func (s *ProjectService) List(ctx context.Context, userID uint) ([]models.Project, error) {
	if s == nil {
		return nil, errors.New("project service is nil")
	}

	var projects []models.Project
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return projects, nil
}

// Get loads a project with its images. Projects of other users are reported
// as missing, never as forbidden.
func (s *ProjectService) Get(ctx context.Context, userID uint, projectID uint) (*models.Project, []models.Image, error) {
	if s == nil {
		return nil, nil, errors.New("project service is nil")
	}

	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, nil, err
	}

	var images []models.Image
	err = s.db.WithContext(ctx).Where("project_id = ?", project.ID).
		Order("page_number, image_index").Find(&images).Error
	if err != nil {
		return nil, nil, fmt.Errorf("load images: %w", err)
	}

	return project, images, nil
}

func (s *ProjectService) Status(ctx context.Context, userID uint, projectID uint) (*models.Project, error) {
	if s == nil {
		return nil, errors.New("project service is nil")
	}

	return s.ownedProject(ctx, userID, projectID)
}

func (s *ProjectService) Delete(ctx context.Context, userID uint, projectID uint) error {
	if s == nil {
		return errors.New("project service is nil")
	}

	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return err
	}

	if err := s.store.RemoveProject(userID, project.ID, project.OriginalPath); err != nil {
		return fmt.Errorf("remove project files: %w", err)
	}

	if err := s.db.WithContext(ctx).Where("project_id = ?", project.ID).Delete(&models.Image{}).Error; err != nil {
		return fmt.Errorf("delete image rows: %w", err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Project{}, project.ID).Error; err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	return nil
}

// GetImage loads an image while enforcing ownership through the project.
func (s *ProjectService) GetImage(ctx context.Context, userID uint, imageID uint) (*models.Image, error) {
	if s == nil {
		return nil, errors.New("project service is nil")
	}

	var img models.Image
	err := s.db.WithContext(ctx).
		Joins("JOIN projects ON projects.id = images.project_id").
		Where("images.id = ? AND projects.user_id = ?", imageID, userID).
		First(&img).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrImageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	return &img, nil
}

func (s *ProjectService) UpdateAltText(ctx context.Context, userID uint, imageID uint, altText string) error {
	if s == nil {
		return errors.New("project service is nil")
	}

	img, err := s.GetImage(ctx, userID, imageID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(img).Update("alt_text_edited", altText).Error; err != nil {
		return fmt.Errorf("update alt text: %w", err)
	}

	return nil
}

func (s *ProjectService) ownedProject(ctx context.Context, userID uint, projectID uint) (*models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}

	return &project, nil
}
