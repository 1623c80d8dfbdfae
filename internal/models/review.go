package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a time-boxed voting round deciding an image's disposition.
// At most one Open review exists per image; the partial unique index is
// created by the database package.
type Review struct {
	ID             uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ImageID        uuid.UUID    `gorm:"type:uuid;not null;index" json:"image_id"`
	SourceReportID *uuid.UUID   `gorm:"type:uuid;index" json:"source_report_id,omitempty"`
	InitiatedBy    Actor        `gorm:"type:uuid" json:"initiated_by"`
	Deadline       time.Time    `gorm:"not null;index" json:"deadline"`
	ExtensionUsed  bool         `gorm:"not null;default:false" json:"extension_used"`
	Status         ReviewStatus `gorm:"type:smallint;not null;index" json:"status"`
	Outcome        Outcome      `gorm:"type:smallint;not null" json:"outcome"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
	ClosedBy       Actor        `gorm:"type:uuid" json:"closed_by"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) IsOpen() bool {
	return r.Status == ReviewOpen
}

// Expired reports whether the deadline lies strictly before now.
func (r *Review) Expired(now time.Time) bool {
	return r.Deadline.Before(now)
}

// Close moves an open review to its terminal state.
func (r *Review) Close(outcome Outcome, by Actor, at time.Time) {
	r.Status = ReviewClosed
	r.Outcome = outcome
	r.ClosedBy = by
	r.ClosedAt = &at
}

// Tally is a snapshot of the live votes on a review.
type Tally struct {
	Keep   int `json:"keep"`
	Remove int `json:"remove"`
}

func (t Tally) Total() int { return t.Keep + t.Remove }

func (t Tally) IsTie() bool { return t.Keep == t.Remove }

// Add counts one vote.
func (t *Tally) Add(v VoteValue) {
	switch v {
	case VoteKeep:
		t.Keep++
	case VoteRemove:
		t.Remove++
	}
}
