package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

const (
	maxReasonLength = 1000
	maxNotesLength  = 2000
)

// ReportService handles user reports and their one-time triage.
type ReportService struct {
	store  store.Store
	deps   Deps
	logger *slog.Logger
}

func NewReportService(st store.Store, deps Deps) *ReportService {
	deps = deps.withDefaults()
	return &ReportService{store: st, deps: deps, logger: deps.Logger}
}

func (s *ReportService) FileReport(ctx context.Context, imageID, reporterID uuid.UUID, category models.ReportCategory, reason string) (*models.Report, error) {
	reason = strings.TrimSpace(reason)
	if !category.Valid() {
		return nil, ErrInvalidCategory
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return nil, ErrReasonTooLong
	}

	var report models.Report
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		if _, err := tx.GetImageVisibility(ctx, imageID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrImageNotFound
			}
			return fmt.Errorf("check image: %w", err)
		}

		report = models.Report{
			ID:         uuid.New(),
			ImageID:    imageID,
			ReporterID: reporterID,
			Category:   category,
			Reason:     reason,
			Status:     models.ReportPending,
			CreatedAt:  s.deps.Clock.Now(),
		}
		if err := tx.CreateReport(ctx, &report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		return recordAudit(ctx, tx, s.deps.Clock, models.Human(reporterID), models.ActionReportFiled, reportRefs(&report), map[string]any{
			"category": category.String(),
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID uuid.UUID) (*models.Report, error) {
	report, err := s.store.GetReport(ctx, reportID, store.LockNone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) ListReports(ctx context.Context, filter store.ReportFilter) ([]models.Report, int64, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListReports(ctx, filter)
}

// DismissReport closes a pending report without touching the image.
func (s *ReportService) DismissReport(ctx context.Context, reportID, moderatorID uuid.UUID, notes *string) (*models.Report, error) {
	return s.triage(ctx, reportID, moderatorID, notes, models.ReportDismissed, func(tx store.Tx, report *models.Report) error {
		return recordAudit(ctx, tx, s.deps.Clock, models.Human(moderatorID), models.ActionReportDismissed, reportRefs(report), map[string]any{
			"notes": notes,
		})
	})
}

// ActOnReport removes the reported image directly, without a vote. It refuses
// while a review of the image is open.
func (s *ReportService) ActOnReport(ctx context.Context, reportID, moderatorID uuid.UUID, notes *string) (*models.Report, error) {
	return s.triage(ctx, reportID, moderatorID, notes, models.ReportReviewed, func(tx store.Tx, report *models.Report) error {
		if _, found, err := tx.FindOpenReview(ctx, report.ImageID); err != nil {
			return fmt.Errorf("find open review: %w", err)
		} else if found {
			return ErrOpenReviewExists
		}

		moderator := models.Human(moderatorID)
		previous, err := tx.GetImageVisibility(ctx, report.ImageID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrImageNotFound
			}
			return fmt.Errorf("read image visibility: %w", err)
		}
		if err := tx.SetImageVisibility(ctx, report.ImageID, models.VisibilityRemoved, moderator, s.deps.Clock.Now()); err != nil {
			return fmt.Errorf("set image visibility: %w", err)
		}

		refs := reportRefs(report)
		if err := recordAudit(ctx, tx, s.deps.Clock, moderator, models.ActionReportActed, refs, map[string]any{
			"notes": notes,
		}); err != nil {
			return err
		}
		return recordAudit(ctx, tx, s.deps.Clock, moderator, models.ActionImageStatusChanged, refs, map[string]any{
			"previous_visibility": previous.String(),
			"visibility":          models.VisibilityRemoved.String(),
		})
	})
}

// UpdateNotes changes moderator notes; the only mutation allowed after triage.
func (s *ReportService) UpdateNotes(ctx context.Context, reportID, moderatorID uuid.UUID, notes string) (*models.Report, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, ErrNotesTooLong
	}

	var report models.Report
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		report, err = loadReport(ctx, tx, reportID)
		if err != nil {
			return err
		}
		report.Notes = &notes
		if err := tx.UpdateReport(ctx, &report); err != nil {
			return fmt.Errorf("update report notes: %w", err)
		}
		return recordAudit(ctx, tx, s.deps.Clock, models.Human(moderatorID), models.ActionReportNotesUpdated, reportRefs(&report), map[string]any{
			"notes": notes,
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportService) triage(ctx context.Context, reportID, moderatorID uuid.UUID, notes *string, status models.ReportStatus, apply func(tx store.Tx, report *models.Report) error) (*models.Report, error) {
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return nil, ErrNotesTooLong
	}

	var report models.Report
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		report, err = loadReport(ctx, tx, reportID)
		if err != nil {
			return err
		}
		if report.Triaged() {
			return ErrReportNotPending
		}

		now := s.deps.Clock.Now()
		report.Status = status
		report.ReviewedBy = models.Human(moderatorID)
		report.ReviewedAt = &now
		report.Notes = notes
		if err := tx.UpdateReport(ctx, &report); err != nil {
			return fmt.Errorf("update report: %w", err)
		}
		return apply(tx, &report)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("report triaged", "event", "report_triaged", "report_id", reportID, "status", status.String())
	return &report, nil
}

func loadReport(ctx context.Context, tx store.Tx, id uuid.UUID) (models.Report, error) {
	report, err := tx.GetReport(ctx, id, store.LockUpdate)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Report{}, ErrReportNotFound
		}
		return models.Report{}, fmt.Errorf("load report: %w", err)
	}
	return report, nil
}

func reportRefs(report *models.Report) AuditRefs {
	reportID, imageID := report.ID, report.ImageID
	return AuditRefs{ReportID: &reportID, ImageID: &imageID}
}
