package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"gorm.io/gorm"
)

// CleanupService is run on a schedule. It drops spent password-reset tokens
// and removes result directories whose project no longer exists.
type CleanupService struct {
	db         *gorm.DB
	resultsDir string
	logService LogWriter
}

func NewCleanupService(db *gorm.DB, resultsDir string, logService LogWriter) (*CleanupService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	if resultsDir == "" {
		return nil, errors.New("results dir is empty")
	}
	if logService == nil {
		return nil, errors.New("log service is nil")
	}

	return &CleanupService{
		db:         db,
		resultsDir: resultsDir,
		logService: logService,
	}, nil
}

func (s *CleanupService) Run(ctx context.Context) error {
	if s == nil {
		return errors.New("cleanup service is nil")
	}

	purged, err := s.purgeResetTokens(ctx)
	if err != nil {
		failMsg := fmt.Sprintf("purge reset tokens: %v", err)
		_ = s.logService.CreateLog(ctx, nil, LogActionCleanup, LogOutcomeFail, &failMsg)
		return err
	}

	removed, err := s.removeOrphanedResults(ctx)
	if err != nil {
		failMsg := fmt.Sprintf("remove orphaned results: %v", err)
		_ = s.logService.CreateLog(ctx, nil, LogActionCleanup, LogOutcomeFail, &failMsg)
		return err
	}

	msg := fmt.Sprintf("tokens=%d orphaned_dirs=%d", purged, removed)
	_ = s.logService.CreateLog(ctx, nil, LogActionCleanup, LogOutcomeSuccess, &msg)

	return nil
}

func (s *CleanupService) purgeResetTokens(ctx context.Context) (int, error) {
	result := s.db.WithContext(ctx).
		Where("used = ? OR expires_at < ?", true, time.Now().UTC()).
		Delete(&models.PasswordReset{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete reset tokens: %w", result.Error)
	}

	return int(result.RowsAffected), nil
}

// removeOrphanedResults walks results/<user>/<project> and deletes project
// directories with no matching DB row. Non-numeric entries are left alone.
func (s *CleanupService) removeOrphanedResults(ctx context.Context) (int, error) {
	userDirs, err := os.ReadDir(s.resultsDir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read results dir: %w", err)
	}

	removed := 0
	for _, userDir := range userDirs {
		if !userDir.IsDir() {
			continue
		}
		if _, err := strconv.ParseUint(userDir.Name(), 10, 64); err != nil {
			continue
		}

		userPath := filepath.Join(s.resultsDir, userDir.Name())
		projectDirs, err := os.ReadDir(userPath)
		if err != nil {
			continue
		}

		for _, projectDir := range projectDirs {
			if !projectDir.IsDir() {
				continue
			}
			projectID, err := strconv.ParseUint(projectDir.Name(), 10, 64)
			if err != nil {
				continue
			}

			var count int64
			if err := s.db.WithContext(ctx).Model(&models.Project{}).
				Where("id = ?", uint(projectID)).Count(&count).Error; err != nil {
				return removed, fmt.Errorf("check project %d: %w", projectID, err)
			}
			if count > 0 {
				continue
			}

			if err := os.RemoveAll(filepath.Join(userPath, projectDir.Name())); err != nil {
				return removed, fmt.Errorf("remove orphaned dir: %w", err)
			}
			removed++
		}
	}

	return removed, nil
}
