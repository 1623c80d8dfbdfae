// Package store defines the persistence port used by the moderation services.
// Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("store: duplicate key")
)

// LockMode selects the row lock taken when reading a review inside a unit of work.
type LockMode int

const (
	LockNone LockMode = iota
	// LockShare blocks concurrent resolution while a vote is written.
	LockShare
	// LockUpdate serialises state transitions of a single review.
	LockUpdate
)

type ReportFilter struct {
	Status  models.ReportStatus
	ImageID uuid.UUID
	Limit   int
	Offset  int
}

type ReviewFilter struct {
	Status  models.ReviewStatus
	ImageID uuid.UUID
	Limit   int
	Offset  int
}

type AuditFilter struct {
	Action   models.AuditAction
	ReviewID uuid.UUID
	ReportID uuid.UUID
	ImageID  uuid.UUID
	Limit    int
	Offset   int
}

// Tx is the set of operations available inside one unit of work.
type Tx interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReport(ctx context.Context, id uuid.UUID, lock LockMode) (models.Report, error)
	UpdateReport(ctx context.Context, report *models.Report) error
	ListReports(ctx context.Context, filter ReportFilter) ([]models.Report, int64, error)

	// CreateReview returns ErrDuplicate when the image already has an open review.
	CreateReview(ctx context.Context, review *models.Review) error
	GetReview(ctx context.Context, id uuid.UUID, lock LockMode) (models.Review, error)
	UpdateReview(ctx context.Context, review *models.Review) error
	FindOpenReview(ctx context.Context, imageID uuid.UUID) (models.Review, bool, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]models.Review, int64, error)
	// ListExpiredReviewIDs returns open reviews whose deadline is before now,
	// oldest deadline first.
	ListExpiredReviewIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// UpsertVote inserts or overwrites the (review, voter) row and reports
	// whether a previous row existed.
	UpsertVote(ctx context.Context, vote *models.Vote) (replaced bool, err error)
	ListVotes(ctx context.Context, reviewID uuid.UUID) ([]models.Vote, error)
	TallyVotes(ctx context.Context, reviewID uuid.UUID) (models.Tally, error)

	AppendAudit(ctx context.Context, entry *models.AuditEntry) error
	ListAudit(ctx context.Context, filter AuditFilter) ([]models.AuditEntry, int64, error)
	DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error)

	GetImageVisibility(ctx context.Context, imageID uuid.UUID) (models.Visibility, error)
	SetImageVisibility(ctx context.Context, imageID uuid.UUID, visibility models.Visibility, by models.Actor, at time.Time) error
}

// Store runs Tx operations either directly or inside Atomic. When fn returns an
// error every write made through tx is rolled back.
type Store interface {
	Tx
	Atomic(ctx context.Context, fn func(tx Tx) error) error
}
