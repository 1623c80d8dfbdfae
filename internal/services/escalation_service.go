package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

// EscalationService opens reviews, either from a pending report or directly
// on an image.
type EscalationService struct {
	store  store.Store
	deps   Deps
	logger *slog.Logger
}

func NewEscalationService(st store.Store, deps Deps) *EscalationService {
	deps = deps.withDefaults()
	return &EscalationService{store: st, deps: deps, logger: deps.Logger}
}

// EscalateReport promotes a pending report into a review of its image and
// withholds the image until the review closes.
func (s *EscalationService) EscalateReport(ctx context.Context, reportID, initiatorID uuid.UUID, deadlineDays *int) (*models.Review, error) {
	days, err := pickDays(deadlineDays, s.deps.Settings.ReviewDeadlineDays)
	if err != nil {
		return nil, err
	}

	var review models.Review
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		report, err := tx.GetReport(ctx, reportID, store.LockUpdate)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrReportNotFound
			}
			return fmt.Errorf("load report: %w", err)
		}
		if report.Status != models.ReportPending {
			return ErrReportNotPending
		}

		initiator := models.Human(initiatorID)
		review, err = s.open(ctx, tx, report.ImageID, &report.ID, initiator, days)
		if err != nil {
			return err
		}

		now := s.deps.Clock.Now()
		report.Status = models.ReportReviewed
		report.ReviewedBy = initiator
		report.ReviewedAt = &now
		if err := tx.UpdateReport(ctx, &report); err != nil {
			return fmt.Errorf("mark report reviewed: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report escalated", "event", "review_started", "review_id", review.ID, "report_id", reportID, "image_id", review.ImageID)
	return &review, nil
}

// StartReview opens a review on an image without a source report.
func (s *EscalationService) StartReview(ctx context.Context, imageID, initiatorID uuid.UUID, deadlineDays *int) (*models.Review, error) {
	days, err := pickDays(deadlineDays, s.deps.Settings.ReviewDeadlineDays)
	if err != nil {
		return nil, err
	}

	var review models.Review
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		review, err = s.open(ctx, tx, imageID, nil, models.Human(initiatorID), days)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review started", "event", "review_started", "review_id", review.ID, "image_id", imageID)
	return &review, nil
}

func (s *EscalationService) open(ctx context.Context, tx store.Tx, imageID uuid.UUID, sourceReportID *uuid.UUID, initiator models.Actor, days int) (models.Review, error) {
	if _, found, err := tx.FindOpenReview(ctx, imageID); err != nil {
		return models.Review{}, fmt.Errorf("find open review: %w", err)
	} else if found {
		return models.Review{}, ErrOpenReviewExists
	}

	now := s.deps.Clock.Now()
	review := models.Review{
		ID:             uuid.New(),
		ImageID:        imageID,
		SourceReportID: sourceReportID,
		InitiatedBy:    initiator,
		Deadline:       addDays(now, days),
		Status:         models.ReviewOpen,
		Outcome:        models.OutcomePending,
		CreatedAt:      now,
	}

	previous, err := setImageVisibility(ctx, tx, &review, models.VisibilityPendingReview, initiator, now)
	if err != nil {
		return models.Review{}, err
	}
	// The partial unique index catches a concurrent escalation that passed the check above.
	if err := tx.CreateReview(ctx, &review); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.Review{}, ErrOpenReviewExists
		}
		return models.Review{}, fmt.Errorf("create review: %w", err)
	}

	source := "direct"
	if sourceReportID != nil {
		source = "report"
	}
	return review, recordAudit(ctx, tx, s.deps.Clock, initiator, models.ActionReviewStarted, refsFor(&review), map[string]any{
		"source":              source,
		"deadline":            review.Deadline.Format(time.RFC3339),
		"deadline_days":       days,
		"previous_visibility": previous.String(),
		"visibility":          models.VisibilityPendingReview.String(),
	})
}
