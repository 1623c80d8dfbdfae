package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SystemLog stores ERROR+ application logs for operators. The moderation
// identifiers are lifted out of the attributes so failed resolutions can be
// looked up by review.
type SystemLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Level     string         `gorm:"size:10;not null;index" json:"level"`
	Message   string         `gorm:"type:text" json:"message"`
	Event     string         `gorm:"size:100;index" json:"event"`
	RequestID string         `gorm:"size:36;index" json:"request_id"`
	ReviewID  *string        `gorm:"size:36;index" json:"review_id"`
	ReportID  *string        `gorm:"size:36" json:"report_id"`
	ImageID   *string        `gorm:"size:36" json:"image_id"`
	Error     string         `gorm:"type:text" json:"error"`
	Extra     datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"extra"`
	CreatedAt time.Time      `json:"created_at"`
}
