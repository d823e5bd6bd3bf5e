package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/inklutec-dev/InkluDocs/internal/models"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const reportSheetName = "Alt-Texte"

var reportHeader = []string{"Seite", "Bild", "Bildtyp", "Status", "Konfidenz", "Alt-Text (generiert)", "Alt-Text (bearbeitet)"}

// ReportService builds the review spreadsheet for a project: one row per
// extracted image.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) (*ReportService, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}

	return &ReportService{db: db}, nil
}

func (s *ReportService) BuildReport(ctx context.Context, userID uint, projectID uint) ([]byte, string, error) {
	if s == nil {
		return nil, "", errors.New("report service is nil")
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

	workbook := excelize.NewFile()
	defer func() {
		_ = workbook.Close()
	}()

	if err := workbook.SetSheetName(workbook.GetSheetName(0), reportSheetName); err != nil {
		return nil, "", fmt.Errorf("rename sheet: %w", err)
	}

	for col, title := range reportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, "", fmt.Errorf("header cell name: %w", err)
		}
		if err := workbook.SetCellValue(reportSheetName, cell, title); err != nil {
			return nil, "", fmt.Errorf("write header: %w", err)
		}
	}

	for row, img := range images {
		edited := ""
		if img.AltTextEdited != nil {
			edited = *img.AltTextEdited
		}
		values := []interface{}{
			img.PageNumber,
			img.ImageIndex,
			img.ImageType,
			img.Status,
			img.Confidence,
			img.AltText,
			edited,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, "", fmt.Errorf("cell name: %w", err)
			}
			if err := workbook.SetCellValue(reportSheetName, cell, value); err != nil {
				return nil, "", fmt.Errorf("write cell: %w", err)
			}
		}
	}

	buf, err := workbook.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("write workbook: %w", err)
	}

	name := fmt.Sprintf("inkludocs_report_%d.xlsx", project.ID)
	return buf.Bytes(), name, nil
}
