package memory

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

// Calls made outside Atomic run as their own single-operation unit of work.

func (s *Store) CreateReport(ctx context.Context, report *models.Report) error {
	return s.Atomic(ctx, func(tx store.Tx) error { return tx.CreateReport(ctx, report) })
}

func (s *Store) GetReport(ctx context.Context, id uuid.UUID, lock store.LockMode) (report models.Report, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		report, err = tx.GetReport(ctx, id, lock)
		return err
	})
	return report, err
}

func (s *Store) UpdateReport(ctx context.Context, report *models.Report) error {
	return s.Atomic(ctx, func(tx store.Tx) error { return tx.UpdateReport(ctx, report) })
}

func (s *Store) ListReports(ctx context.Context, filter store.ReportFilter) (reports []models.Report, total int64, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		reports, total, err = tx.ListReports(ctx, filter)
		return err
	})
	return reports, total, err
}

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	return s.Atomic(ctx, func(tx store.Tx) error { return tx.CreateReview(ctx, review) })
}

func (s *Store) GetReview(ctx context.Context, id uuid.UUID, lock store.LockMode) (review models.Review, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		review, err = tx.GetReview(ctx, id, lock)
		return err
	})
	return review, err
}

func (s *Store) UpdateReview(ctx context.Context, review *models.Review) error {
	return s.Atomic(ctx, func(tx store.Tx) error { return tx.UpdateReview(ctx, review) })
}

func (s *Store) FindOpenReview(ctx context.Context, imageID uuid.UUID) (review models.Review, found bool, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		review, found, err = tx.FindOpenReview(ctx, imageID)
		return err
	})
	return review, found, err
}

func (s *Store) ListReviews(ctx context.Context, filter store.ReviewFilter) (reviews []models.Review, total int64, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		reviews, total, err = tx.ListReviews(ctx, filter)
		return err
	})
	return reviews, total, err
}

func (s *Store) ListExpiredReviewIDs(ctx context.Context, now time.Time, limit int) (ids []uuid.UUID, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		ids, err = tx.ListExpiredReviewIDs(ctx, now, limit)
		return err
	})
	return ids, err
}

func (s *Store) UpsertVote(ctx context.Context, vote *models.Vote) (replaced bool, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		replaced, err = tx.UpsertVote(ctx, vote)
		return err
	})
	return replaced, err
}

func (s *Store) ListVotes(ctx context.Context, reviewID uuid.UUID) (votes []models.Vote, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		votes, err = tx.ListVotes(ctx, reviewID)
		return err
	})
	return votes, err
}

func (s *Store) TallyVotes(ctx context.Context, reviewID uuid.UUID) (tally models.Tally, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		tally, err = tx.TallyVotes(ctx, reviewID)
		return err
	})
	return tally, err
}

func (s *Store) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	return s.Atomic(ctx, func(tx store.Tx) error { return tx.AppendAudit(ctx, entry) })
}

func (s *Store) ListAudit(ctx context.Context, filter store.AuditFilter) (entries []models.AuditEntry, total int64, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		entries, total, err = tx.ListAudit(ctx, filter)
		return err
	})
	return entries, total, err
}

func (s *Store) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		deleted, err = tx.DeleteAuditBefore(ctx, cutoff)
		return err
	})
	return deleted, err
}

func (s *Store) GetImageVisibility(ctx context.Context, imageID uuid.UUID) (v models.Visibility, err error) {
	err = s.Atomic(ctx, func(tx store.Tx) error {
		v, err = tx.GetImageVisibility(ctx, imageID)
		return err
	})
	return v, err
}

func (s *Store) SetImageVisibility(ctx context.Context, imageID uuid.UUID, visibility models.Visibility, by models.Actor, at time.Time) error {
	return s.Atomic(ctx, func(tx store.Tx) error {
		return tx.SetImageVisibility(ctx, imageID, visibility, by, at)
	})
}

var _ store.Store = (*Store)(nil)
