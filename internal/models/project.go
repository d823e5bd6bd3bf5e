package models

import "time"

const (
	ProjectStatusUploaded   = "uploaded"
	ProjectStatusExtracting = "extracting"
	ProjectStatusExtracted  = "extracted"
	ProjectStatusProcessing = "processing"
	ProjectStatusDone       = "done"
	ProjectStatusError      = "error"
)

type Project struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Filename        string    `gorm:"type:text;not null" json:"filename"`
	OriginalPath    string    `gorm:"type:text;not null" json:"original_path"`
	Status          string    `gorm:"type:text;not null;default:uploaded" json:"status"`
	TotalImages     int       `gorm:"not null;default:0" json:"total_images"`
	ProcessedImages int       `gorm:"not null;default:0" json:"processed_images"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
