package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository implements store.Store on PostgreSQL through gorm.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: db, logger: logger}
}

// Atomic runs fn in a transaction. Nested calls become savepoints.
func (r *Repository) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx, logger: r.logger})
	})
}

func (r *Repository) CreateReport(ctx context.Context, report *models.Report) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		return r.logError("report_create_failed", err, "report_id", report.ID)
	}
	return nil
}

func (r *Repository) GetReport(ctx context.Context, id uuid.UUID, lock store.LockMode) (models.Report, error) {
	var row models.Report
	err := withLock(r.db.WithContext(ctx), lock).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Report{}, store.ErrNotFound
		}
		return models.Report{}, r.logError("report_get_failed", err, "report_id", id)
	}
	return row, nil
}

func (r *Repository) UpdateReport(ctx context.Context, report *models.Report) error {
	result := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", report.ID).
		Updates(map[string]any{
			"status":      report.Status,
			"reviewed_by": report.ReviewedBy,
			"reviewed_at": report.ReviewedAt,
			"notes":       report.Notes,
		})
	if result.Error != nil {
		return r.logError("report_update_failed", result.Error, "report_id", report.ID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) ListReports(ctx context.Context, filter store.ReportFilter) ([]models.Report, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Report{})
	if filter.Status != 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ImageID != uuid.Nil {
		query = query.Where("image_id = ?", filter.ImageID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.logError("report_count_failed", err)
	}
	var reports []models.Report
	if err := paginate(query, filter.Limit, filter.Offset).Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, 0, r.logError("report_list_failed", err)
	}
	return reports, total, nil
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return r.logError("review_create_failed", err, "review_id", review.ID, "image_id", review.ImageID)
	}
	return nil
}

func (r *Repository) GetReview(ctx context.Context, id uuid.UUID, lock store.LockMode) (models.Review, error) {
	var row models.Review
	err := withLock(r.db.WithContext(ctx), lock).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, store.ErrNotFound
		}
		return models.Review{}, r.logError("review_get_failed", err, "review_id", id)
	}
	return row, nil
}

func (r *Repository) UpdateReview(ctx context.Context, review *models.Review) error {
	result := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"deadline":       review.Deadline,
			"extension_used": review.ExtensionUsed,
			"status":         review.Status,
			"outcome":        review.Outcome,
			"closed_at":      review.ClosedAt,
			"closed_by":      review.ClosedBy,
		})
	if result.Error != nil {
		return r.logError("review_update_failed", result.Error, "review_id", review.ID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) FindOpenReview(ctx context.Context, imageID uuid.UUID) (models.Review, bool, error) {
	var row models.Review
	err := r.db.WithContext(ctx).
		Where("image_id = ? AND status = ?", imageID, models.ReviewOpen).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Review{}, false, nil
		}
		return models.Review{}, false, r.logError("review_find_open_failed", err, "image_id", imageID)
	}
	return row, true, nil
}

func (r *Repository) ListReviews(ctx context.Context, filter store.ReviewFilter) ([]models.Review, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Review{})
	if filter.Status != 0 {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ImageID != uuid.Nil {
		query = query.Where("image_id = ?", filter.ImageID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.logError("review_count_failed", err)
	}
	var reviews []models.Review
	if err := paginate(query, filter.Limit, filter.Offset).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, 0, r.logError("review_list_failed", err)
	}
	return reviews, total, nil
}

func (r *Repository) ListExpiredReviewIDs(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("status = ? AND deadline < ?", models.ReviewOpen, now).
		Order("deadline ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, r.logError("review_list_expired_failed", err)
	}
	return ids, nil
}

type upsertResult struct {
	CreatedAt time.Time
	Inserted  bool
}

// UpsertVote relies on the (review_id, voter_id) primary key; xmax = 0 holds
// only for freshly inserted tuples.
func (r *Repository) UpsertVote(ctx context.Context, vote *models.Vote) (bool, error) {
	var res upsertResult
	err := r.db.WithContext(ctx).Raw(`
		INSERT INTO review_votes (review_id, voter_id, value, comment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (review_id, voter_id) DO UPDATE
		SET value = EXCLUDED.value, comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING created_at, (xmax = 0) AS inserted`,
		vote.ReviewID, vote.VoterID, vote.Value, vote.Comment, vote.CreatedAt, vote.UpdatedAt,
	).Scan(&res).Error
	if err != nil {
		return false, r.logError("vote_upsert_failed", err, "review_id", vote.ReviewID, "voter_id", vote.VoterID)
	}
	vote.CreatedAt = res.CreatedAt
	return !res.Inserted, nil
}

func (r *Repository) ListVotes(ctx context.Context, reviewID uuid.UUID) ([]models.Vote, error) {
	var votes []models.Vote
	if err := r.db.WithContext(ctx).
		Where("review_id = ?", reviewID).
		Order("created_at ASC").
		Find(&votes).Error; err != nil {
		return nil, r.logError("vote_list_failed", err, "review_id", reviewID)
	}
	return votes, nil
}

type valueCount struct {
	Value models.VoteValue
	N     int
}

func (r *Repository) TallyVotes(ctx context.Context, reviewID uuid.UUID) (models.Tally, error) {
	var rows []valueCount
	if err := r.db.WithContext(ctx).Model(&models.Vote{}).
		Select("value, count(*) AS n").
		Where("review_id = ?", reviewID).
		Group("value").
		Scan(&rows).Error; err != nil {
		return models.Tally{}, r.logError("vote_tally_failed", err, "review_id", reviewID)
	}
	var tally models.Tally
	for _, row := range rows {
		switch row.Value {
		case models.VoteKeep:
			tally.Keep = row.N
		case models.VoteRemove:
			tally.Remove = row.N
		}
	}
	return tally, nil
}

func (r *Repository) AppendAudit(ctx context.Context, entry *models.AuditEntry) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return r.logError("audit_append_failed", err, "action", string(entry.Action))
	}
	return nil
}

func (r *Repository) ListAudit(ctx context.Context, filter store.AuditFilter) ([]models.AuditEntry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditEntry{})
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ReviewID != uuid.Nil {
		query = query.Where("review_id = ?", filter.ReviewID)
	}
	if filter.ReportID != uuid.Nil {
		query = query.Where("report_id = ?", filter.ReportID)
	}
	if filter.ImageID != uuid.Nil {
		query = query.Where("image_id = ?", filter.ImageID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.logError("audit_count_failed", err)
	}
	var entries []models.AuditEntry
	if err := paginate(query, filter.Limit, filter.Offset).Order("created_at DESC").Find(&entries).Error; err != nil {
		return nil, 0, r.logError("audit_list_failed", err)
	}
	return entries, total, nil
}

func (r *Repository) DeleteAuditBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditEntry{})
	if result.Error != nil {
		return 0, r.logError("audit_prune_failed", result.Error, "cutoff", cutoff)
	}
	return result.RowsAffected, nil
}

func (r *Repository) GetImageVisibility(ctx context.Context, imageID uuid.UUID) (models.Visibility, error) {
	var img models.Image
	err := r.db.WithContext(ctx).Select("id", "visibility").Where("id = ?", imageID).Take(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, store.ErrNotFound
		}
		return 0, r.logError("image_get_visibility_failed", err, "image_id", imageID)
	}
	return img.Visibility, nil
}

func (r *Repository) SetImageVisibility(ctx context.Context, imageID uuid.UUID, visibility models.Visibility, by models.Actor, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Image{}).
		Where("id = ?", imageID).
		Updates(map[string]any{
			"visibility": visibility,
			"updated_by": by,
			"updated_at": at,
		})
	if result.Error != nil {
		return r.logError("image_set_visibility_failed", result.Error, "image_id", imageID)
	}
	if result.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+6)
	fields = append(fields,
		"event", event,
		"layer", "store",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("moderation store operation failed", fields...)
	return err
}

func withLock(db *gorm.DB, lock store.LockMode) *gorm.DB {
	switch lock {
	case store.LockShare:
		return db.Clauses(clause.Locking{Strength: "SHARE"})
	case store.LockUpdate:
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func paginate(db *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		db = db.Limit(limit)
	}
	if offset > 0 {
		db = db.Offset(offset)
	}
	return db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ store.Store = (*Repository)(nil)
