package dto

import (
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

type CreateReportRequest struct {
	ImageID  uuid.UUID             `json:"image_id"`
	Category models.ReportCategory `json:"category"`
	Reason   string                `json:"reason"`
}

// TriageReportRequest is the body of both dismiss and act.
type TriageReportRequest struct {
	Notes *string `json:"notes"`
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

type EscalateReportRequest struct {
	DeadlineDays *int `json:"deadline_days"`
}

type StartReviewRequest struct {
	ImageID      uuid.UUID `json:"image_id"`
	DeadlineDays *int      `json:"deadline_days"`
}

type CastVoteRequest struct {
	Value   models.VoteValue `json:"value"`
	Comment *string          `json:"comment"`
}

type CloseReviewRequest struct {
	Outcome models.Outcome `json:"outcome"`
}

type ExtendReviewRequest struct {
	ExtensionDays *int `json:"extension_days"`
}

type PruneAuditRequest struct {
	RetentionYears *int `json:"retention_years"`
}

type PruneAuditResponse struct {
	Deleted int64 `json:"deleted"`
}
