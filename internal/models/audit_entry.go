package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditAction is the closed set of state changes written to the audit log.
type AuditAction string

const (
	ActionReportFiled        AuditAction = "report-filed"
	ActionReportDismissed    AuditAction = "report-dismissed"
	ActionReportActed        AuditAction = "report-acted"
	ActionReportNotesUpdated AuditAction = "report-notes-updated"
	ActionReviewStarted      AuditAction = "review-started"
	ActionVoteCast           AuditAction = "vote-cast"
	ActionReviewClosed       AuditAction = "review-closed"
	ActionReviewExtended     AuditAction = "review-extended"
	ActionImageStatusChanged AuditAction = "image-status-changed"
)

func (a AuditAction) Valid() bool {
	switch a {
	case ActionReportFiled, ActionReportDismissed, ActionReportActed, ActionReportNotesUpdated,
		ActionReviewStarted, ActionVoteCast, ActionReviewClosed, ActionReviewExtended,
		ActionImageStatusChanged:
		return true
	}
	return false
}

// AuditEntry is an immutable record of one state change. Rows are only ever
// removed by the retention pruner.
type AuditEntry struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor     Actor          `gorm:"type:uuid;index" json:"actor_id"`
	Action    AuditAction    `gorm:"size:40;not null;index" json:"action"`
	ReportID  *uuid.UUID     `gorm:"type:uuid;index" json:"report_id,omitempty"`
	ReviewID  *uuid.UUID     `gorm:"type:uuid;index" json:"review_id,omitempty"`
	ImageID   *uuid.UUID     `gorm:"type:uuid;index" json:"image_id,omitempty"`
	Details   datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"details"`
	CreatedAt time.Time      `gorm:"not null;index;autoCreateTime:false" json:"created_at"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}
