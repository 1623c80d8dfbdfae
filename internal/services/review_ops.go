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

// State transitions shared by the voting service and the deadline resolver.
// Callers hold the review row lock and pass the tally they read under it.

func closeReview(ctx context.Context, tx store.Tx, deps Deps, review *models.Review, outcome models.Outcome, by models.Actor, tally models.Tally, extra map[string]any) error {
	if !outcome.Final() {
		return ErrInvalidOutcome
	}
	now := deps.Clock.Now()
	previous, err := setImageVisibility(ctx, tx, review, models.VisibilityFor(outcome), by, now)
	if err != nil {
		return err
	}
	if previous != models.VisibilityPendingReview {
		// Something outside this workflow touched the image while it was under review.
		deps.Logger.Warn("image visibility changed during review",
			"event", "review_visibility_drift",
			"review_id", review.ID,
			"image_id", review.ImageID,
			"previous_visibility", previous.String(),
		)
	}

	review.Close(outcome, by, now)
	if err := tx.UpdateReview(ctx, review); err != nil {
		return fmt.Errorf("close review: %w", err)
	}

	details := tallyDetails(tally)
	details["outcome"] = outcome.String()
	details["automatic"] = by.IsSystem()
	details["previous_visibility"] = previous.String()
	details["visibility"] = models.VisibilityFor(outcome).String()
	for k, v := range extra {
		details[k] = v
	}
	return recordAudit(ctx, tx, deps.Clock, by, models.ActionReviewClosed, refsFor(review), details)
}

func extendReview(ctx context.Context, tx store.Tx, deps Deps, review *models.Review, days int, by models.Actor, extra map[string]any) error {
	if review.ExtensionUsed {
		return ErrExtensionUsed
	}
	now := deps.Clock.Now()
	previous := review.Deadline
	review.Deadline = addDays(now, days)
	review.ExtensionUsed = true
	if err := tx.UpdateReview(ctx, review); err != nil {
		return fmt.Errorf("extend review: %w", err)
	}

	details := map[string]any{
		"previous_deadline": previous.Format(time.RFC3339),
		"deadline":          review.Deadline.Format(time.RFC3339),
		"extension_days":    days,
		"automatic":         by.IsSystem(),
	}
	for k, v := range extra {
		details[k] = v
	}
	return recordAudit(ctx, tx, deps.Clock, by, models.ActionReviewExtended, refsFor(review), details)
}

// setImageVisibility is one read-modify-write on the image; it returns the
// value it replaced.
func setImageVisibility(ctx context.Context, tx store.Tx, review *models.Review, next models.Visibility, by models.Actor, at time.Time) (models.Visibility, error) {
	previous, err := tx.GetImageVisibility(ctx, review.ImageID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrImageNotFound
		}
		return 0, fmt.Errorf("read image visibility: %w", err)
	}
	if err := tx.SetImageVisibility(ctx, review.ImageID, next, by, at); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, ErrImageNotFound
		}
		return 0, fmt.Errorf("set image visibility: %w", err)
	}
	return previous, nil
}

func loadReview(ctx context.Context, tx store.Tx, id uuid.UUID, lock store.LockMode) (models.Review, error) {
	review, err := tx.GetReview(ctx, id, lock)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Review{}, ErrReviewNotFound
		}
		return models.Review{}, fmt.Errorf("load review: %w", err)
	}
	return review, nil
}

func tallyDetails(t models.Tally) map[string]any {
	return map[string]any{
		"keep":   t.Keep,
		"remove": t.Remove,
		"total":  t.Total(),
	}
}

func logAttrsFor(review *models.Review) []any {
	return []any{slog.String("review_id", review.ID.String()), slog.String("image_id", review.ImageID.String())}
}
