package models

import (
	"time"

	"github.com/google/uuid"
)

// Image is owned by the media side of the platform. Moderation only reads and
// writes its Visibility.
type Image struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Visibility Visibility `gorm:"type:smallint;not null" json:"visibility"`
	UpdatedBy  Actor      `gorm:"type:uuid" json:"updated_by"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Image) TableName() string {
	return "images"
}
