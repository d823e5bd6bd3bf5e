package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/gorm"
)

const exportPrefix = "inkludocs_"

// The alt-text a user types for purely decorative images. Exports map it to
// an empty /Alt entry, which is how PDF/UA marks decorative content.
const decorativeMarker = "dekorativ"

type ExportService struct {
	db         *gorm.DB
	tagger     AltTextTagger
	store      UploadStore
	logService LogWriter
}

func NewExportService(db *gorm.DB, tagger AltTextTagger, store UploadStore, logService LogWriter) (*ExportService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if tagger == nil {
		return nil, errors.New("alt-text tagger is nil")
	}
	if store == nil {
		return nil, errors.New("upload store is nil")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &ExportService{
		db:         db,
		tagger:     tagger,
		store:      store,
		logService: logService,
	}, nil
}

// Export writes the effective alt-texts into the original PDF and returns
// the path of the tagged copy plus its download name.
func (s *ExportService) Export(ctx context.Context, userID uint, projectID uint) (string, string, error) {
	if s == nil {
		return "", "", errors.New("export service is nil")
	}

	var project models.Project
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", projectID, userID).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", "", ErrProjectNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("load project: %w", err)
	}

	var images []models.Image
	if err := s.db.WithContext(ctx).Where("project_id = ?", project.ID).Find(&images).Error; err != nil {
		return "", "", fmt.Errorf("load images: %w", err)
	}

	altTexts := EffectiveAltTexts(images)

	outDir, err := s.store.ProjectResultsDir(userID, project.ID)
	if err != nil {
		return "", "", fmt.Errorf("create results dir: %w", err)
	}

	downloadName := exportPrefix + SanitizeFilename(project.Filename)
	outPath := filepath.Join(outDir, downloadName)

	if err := s.tagger.WriteAltTexts(ctx, project.OriginalPath, outPath, altTexts); err != nil {
		failMsg := fmt.Sprintf("project=%d: %v", project.ID, err)
		_ = s.logService.CreateLog(ctx, nil, LogActionExport, LogOutcomeFail, &failMsg)
		return "", "", fmt.Errorf("write alt texts: %w", err)
	}

	okMsg := fmt.Sprintf("project=%d images=%d file=%s", project.ID, len(altTexts), downloadName)
	_ = s.logService.CreateLog(ctx, nil, LogActionExport, LogOutcomeSuccess, &okMsg)

	return outPath, exportPrefix + project.Filename, nil
}

// EffectiveAltTexts maps PDF object numbers to the alt-text that should be
// written: the user's edit when present, otherwise the generated text. The
// decorative marker becomes an empty string.
func EffectiveAltTexts(images []models.Image) map[int]string {
	altTexts := make(map[int]string)
	for _, img := range images {
		text := img.AltText
		if img.AltTextEdited != nil && *img.AltTextEdited != "" {
			text = *img.AltTextEdited
		}
		if text == "" || img.XRef == 0 {
			continue
		}
		if text == decorativeMarker {
			text = ""
		}
		altTexts[img.XRef] = text
	}
	return altTexts
}
