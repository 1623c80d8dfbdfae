package models

import (
	"time"

	"github.com/google/uuid"
)

// Vote is one voter's live choice on a review, unique per (review, voter).
type Vote struct {
	ReviewID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"review_id"`
	VoterID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"voter_id"`
	Value     VoteValue `gorm:"type:smallint;not null" json:"value"`
	Comment   *string   `gorm:"size:2000" json:"comment,omitempty"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime:false" json:"updated_at"`
}

func (Vote) TableName() string {
	return "review_votes"
}
