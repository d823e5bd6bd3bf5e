package models

import "time"

const (
	ImageStatusPending    = "pending"
	ImageStatusProcessing = "processing"
	ImageStatusDone       = "done"
)

type Image struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     uint      `gorm:"not null;index" json:"project_id"`
	PageNumber    int       `gorm:"not null" json:"page_number"`
	ImageIndex    int       `gorm:"not null" json:"image_index"`
	ImagePath     string    `gorm:"type:text;not null" json:"image_path"`
	ImageType     string    `gorm:"type:text;not null;default:unknown" json:"image_type"`
	AltText       string    `gorm:"type:text;not null;default:''" json:"alt_text"`
	AltTextEdited *string   `gorm:"type:text" json:"alt_text_edited,omitempty"`
	ContextText   string    `gorm:"type:text;not null;default:''" json:"context_text"`
	Width         int       `json:"width"`
	Height        int       `json:"height"`
	XRef          int       `gorm:"column:xref" json:"xref"`
	Confidence    string    `gorm:"type:text;not null;default:mittel" json:"konfidenz"`
	Status        string    `gorm:"type:text;not null;default:pending" json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}
