package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditRefs links an audit entry to the entities it documents.
type AuditRefs struct {
	ReportID *uuid.UUID
	ReviewID *uuid.UUID
	ImageID  *uuid.UUID
}

func refsFor(review *models.Review) AuditRefs {
	reviewID, imageID := review.ID, review.ImageID
	return AuditRefs{ReportID: review.SourceReportID, ReviewID: &reviewID, ImageID: &imageID}
}

// recordAudit appends an entry through tx. It must run inside the unit of work
// of the change it documents: a failed insert fails the whole operation.
func recordAudit(ctx context.Context, tx store.Tx, clock Clock, actor models.Actor, action models.AuditAction, refs AuditRefs, details map[string]any) error {
	if !action.Valid() {
		return fmt.Errorf("record audit: unknown action %q", action)
	}
	if details == nil {
		details = map[string]any{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	entry := &models.AuditEntry{
		ID:        uuid.New(),
		Actor:     actor,
		Action:    action,
		ReportID:  refs.ReportID,
		ReviewID:  refs.ReviewID,
		ImageID:   refs.ImageID,
		Details:   datatypes.JSON(payload),
		CreatedAt: clock.Now(),
	}
	if err := tx.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("record audit %s: %w", action, err)
	}
	return nil
}

// AuditService exposes the audit trail to operators and prunes it.
type AuditService struct {
	store  store.Store
	deps   Deps
	logger *slog.Logger
}

func NewAuditService(st store.Store, deps Deps) *AuditService {
	deps = deps.withDefaults()
	return &AuditService{store: st, deps: deps, logger: deps.Logger}
}

func (s *AuditService) List(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, int64, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListAudit(ctx, filter)
}

// Prune deletes entries older than retentionYears. It is a plain bulk delete.
func (s *AuditService) Prune(ctx context.Context, retentionYears int) (int64, error) {
	if retentionYears < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := s.deps.Clock.Now().AddDate(-retentionYears, 0, 0)
	deleted, err := s.store.DeleteAuditBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit entries: %w", err)
	}
	if deleted > 0 {
		s.logger.Info("audit entries pruned", "deleted", deleted, "cutoff", cutoff, "retention_years", retentionYears)
	}
	return deleted, nil
}

// PruneDefault prunes with the configured retention period.
func (s *AuditService) PruneDefault(ctx context.Context) (int64, error) {
	return s.Prune(ctx, s.deps.Settings.AuditRetentionYears)
}
