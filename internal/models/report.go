package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is a user's flag against an image. It is triaged exactly once and
// never deleted.
type Report struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ImageID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"image_id"`
	ReporterID uuid.UUID      `gorm:"type:uuid;not null;index" json:"reporter_id"`
	Category   ReportCategory `gorm:"type:smallint;not null" json:"category"`
	Reason     string         `gorm:"size:1000;not null" json:"reason"`
	Status     ReportStatus   `gorm:"type:smallint;not null;index" json:"status"`
	ReviewedBy Actor          `gorm:"type:uuid" json:"reviewed_by"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	Notes      *string        `gorm:"size:2000" json:"notes,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
}

func (Report) TableName() string {
	return "reports"
}

// Triaged reports whether the report has left the Pending state.
func (r *Report) Triaged() bool {
	return r.Status != ReportPending
}
