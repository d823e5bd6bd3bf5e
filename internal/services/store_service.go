package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// StoreService owns the on-disk layout: uploads/<user>/<ts>_<name> for
// originals and results/<user>/<project>/ for extracted images and exports.
type StoreService struct {
	uploadDir  string
	resultsDir string
	now        func() time.Time
}

func NewStoreService(uploadDir string, resultsDir string) (*StoreService, error) {
	if uploadDir == "" {
		return nil, errors.New("upload dir is empty")
	}
	if resultsDir == "" {
		return nil, errors.New("results dir is empty")
	}

	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}

	return &StoreService{
		uploadDir:  uploadDir,
		resultsDir: resultsDir,
		now:        time.Now,
	}, nil
}

func (s *StoreService) SaveUpload(userID uint, filename string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("store service is nil")
	}
	if len(data) == 0 {
		return "", errors.New("upload data is empty")
	}

	userDir := filepath.Join(s.uploadDir, strconv.FormatUint(uint64(userID), 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("create user upload dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s", s.now().Format("20060102_150405"), SanitizeFilename(filename))
	path := filepath.Join(userDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path, nil
}

func (s *StoreService) ProjectResultsDir(userID uint, projectID uint) (string, error) {
	if s == nil {
		return "", errors.New("store service is nil")
	}

	dir := filepath.Join(s.resultsDir,
		strconv.FormatUint(uint64(userID), 10),
		strconv.FormatUint(uint64(projectID), 10))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project results dir: %w", err)
	}

	return dir, nil
}

func (s *StoreService) RemoveProject(userID uint, projectID uint, originalPath string) error {
	if s == nil {
		return errors.New("store service is nil")
	}

	dir := filepath.Join(s.resultsDir,
		strconv.FormatUint(uint64(userID), 10),
		strconv.FormatUint(uint64(projectID), 10))
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove project results: %w", err)
	}

	if originalPath != "" {
		if err := os.Remove(originalPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove original file: %w", err)
		}
	}

	return nil
}

func (s *StoreService) RemoveUserData(userID uint) error {
	if s == nil {
		return errors.New("store service is nil")
	}

	id := strconv.FormatUint(uint64(userID), 10)
	if err := os.RemoveAll(filepath.Join(s.uploadDir, id)); err != nil {
		return fmt.Errorf("remove user uploads: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(s.resultsDir, id)); err != nil {
		return fmt.Errorf("remove user results: %w", err)
	}

	return nil
}

// SanitizeFilename reduces a client-supplied name to a safe basename.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload.pdf"
	}
	return name
}
