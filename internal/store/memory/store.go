package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

// Store is an in-process store.Store. Atomic works on a copy of the state and
// swaps it in only when fn succeeds, so failed units of work leave no trace.
// All units of work are serialised by a single mutex.
type Store struct {
	mu    sync.Mutex
	state *state
	hooks hooks
}

type hooks struct {
	auditErr  func(models.AuditEntry) error
	reviewErr func(models.Review) error
}

type voteKey struct {
	reviewID uuid.UUID
	voterID  uuid.UUID
}

type state struct {
	reports map[uuid.UUID]models.Report
	reviews map[uuid.UUID]models.Review
	votes   map[voteKey]models.Vote
	audit   []models.AuditEntry
	images  map[uuid.UUID]models.Image
}

func NewStore() *Store {
	return &Store{state: &state{
		reports: map[uuid.UUID]models.Report{},
		reviews: map[uuid.UUID]models.Review{},
		votes:   map[voteKey]models.Vote{},
		images:  map[uuid.UUID]models.Image{},
	}}
}

// PutImage registers an image; it stands in for the media service's table.
func (s *Store) PutImage(img models.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.images[img.ID] = img
}

// FailAudit makes AppendAudit return the error produced by fn (nil lets the
// write through). Passing nil removes the hook.
func (s *Store) FailAudit(fn func(models.AuditEntry) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks.auditErr = fn
}

// FailReviewUpdate makes UpdateReview return the error produced by fn.
func (s *Store) FailReviewUpdate(fn func(models.Review) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks.reviewErr = fn
}

func (s *Store) Atomic(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(&tx{st: work, hooks: s.hooks}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (st *state) clone() *state {
	c := &state{
		reports: make(map[uuid.UUID]models.Report, len(st.reports)),
		reviews: make(map[uuid.UUID]models.Review, len(st.reviews)),
		votes:   make(map[voteKey]models.Vote, len(st.votes)),
		audit:   append([]models.AuditEntry(nil), st.audit...),
		images:  make(map[uuid.UUID]models.Image, len(st.images)),
	}
	for k, v := range st.reports {
		c.reports[k] = v
	}
	for k, v := range st.reviews {
		c.reviews[k] = v
	}
	for k, v := range st.votes {
		c.votes[k] = v
	}
	for k, v := range st.images {
		c.images[k] = v
	}
	return c
}

// tx mutates one working copy of the state.
type tx struct {
	st    *state
	hooks hooks
}

func (t *tx) CreateReport(_ context.Context, report *models.Report) error {
	if _, ok := t.st.reports[report.ID]; ok {
		return store.ErrDuplicate
	}
	t.st.reports[report.ID] = *report
	return nil
}

func (t *tx) GetReport(_ context.Context, id uuid.UUID, _ store.LockMode) (models.Report, error) {
	r, ok := t.st.reports[id]
	if !ok {
		return models.Report{}, store.ErrNotFound
	}
	return r, nil
}

func (t *tx) UpdateReport(_ context.Context, report *models.Report) error {
	if _, ok := t.st.reports[report.ID]; !ok {
		return store.ErrNotFound
	}
	t.st.reports[report.ID] = *report
	return nil
}

func (t *tx) ListReports(_ context.Context, filter store.ReportFilter) ([]models.Report, int64, error) {
	out := make([]models.Report, 0)
	for _, r := range t.st.reports {
		if filter.Status != 0 && r.Status != filter.Status {
			continue
		}
		if filter.ImageID != uuid.Nil && r.ImageID != filter.ImageID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (t *tx) CreateReview(_ context.Context, review *models.Review) error {
	if _, ok := t.st.reviews[review.ID]; ok {
		return store.ErrDuplicate
	}
	if review.Status == models.ReviewOpen {
		for _, existing := range t.st.reviews {
			if existing.ImageID == review.ImageID && existing.Status == models.ReviewOpen {
				return store.ErrDuplicate
			}
		}
	}
	t.st.reviews[review.ID] = *review
	return nil
}

func (t *tx) GetReview(_ context.Context, id uuid.UUID, _ store.LockMode) (models.Review, error) {
	r, ok := t.st.reviews[id]
	if !ok {
		return models.Review{}, store.ErrNotFound
	}
	return r, nil
}

func (t *tx) UpdateReview(_ context.Context, review *models.Review) error {
	if _, ok := t.st.reviews[review.ID]; !ok {
		return store.ErrNotFound
	}
	if t.hooks.reviewErr != nil {
		if err := t.hooks.reviewErr(*review); err != nil {
			return err
		}
	}
	t.st.reviews[review.ID] = *review
	return nil
}

func (t *tx) FindOpenReview(_ context.Context, imageID uuid.UUID) (models.Review, bool, error) {
	for _, r := range t.st.reviews {
		if r.ImageID == imageID && r.Status == models.ReviewOpen {
			return r, true, nil
		}
	}
	return models.Review{}, false, nil
}

func (t *tx) ListReviews(_ context.Context, filter store.ReviewFilter) ([]models.Review, int64, error) {
	out := make([]models.Review, 0)
	for _, r := range t.st.reviews {
		if filter.Status != 0 && r.Status != filter.Status {
			continue
		}
		if filter.ImageID != uuid.Nil && r.ImageID != filter.ImageID {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (t *tx) ListExpiredReviewIDs(_ context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	expired := make([]models.Review, 0)
	for _, r := range t.st.reviews {
		if r.Status == models.ReviewOpen && r.Deadline.Before(now) {
			expired = append(expired, r)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].Deadline.Before(expired[j].Deadline) })
	expired = page(expired, limit, 0)
	ids := make([]uuid.UUID, len(expired))
	for i, r := range expired {
		ids[i] = r.ID
	}
	return ids, nil
}

func (t *tx) UpsertVote(_ context.Context, vote *models.Vote) (bool, error) {
	key := voteKey{reviewID: vote.ReviewID, voterID: vote.VoterID}
	existing, replaced := t.st.votes[key]
	if replaced {
		vote.CreatedAt = existing.CreatedAt
	}
	t.st.votes[key] = *vote
	return replaced, nil
}

func (t *tx) ListVotes(_ context.Context, reviewID uuid.UUID) ([]models.Vote, error) {
	out := make([]models.Vote, 0)
	for k, v := range t.st.votes {
		if k.reviewID == reviewID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (t *tx) TallyVotes(_ context.Context, reviewID uuid.UUID) (models.Tally, error) {
	var tally models.Tally
	for k, v := range t.st.votes {
		if k.reviewID == reviewID {
			tally.Add(v.Value)
		}
	}
	return tally, nil
}

func (t *tx) AppendAudit(_ context.Context, entry *models.AuditEntry) error {
	if t.hooks.auditErr != nil {
		if err := t.hooks.auditErr(*entry); err != nil {
			return err
		}
	}
	t.st.audit = append(t.st.audit, *entry)
	return nil
}

func (t *tx) ListAudit(_ context.Context, filter store.AuditFilter) ([]models.AuditEntry, int64, error) {
	out := make([]models.AuditEntry, 0)
	for _, e := range t.st.audit {
		if filter.Action != "" && e.Action != filter.Action {
			continue
		}
		if filter.ReviewID != uuid.Nil && (e.ReviewID == nil || *e.ReviewID != filter.ReviewID) {
			continue
		}
		if filter.ReportID != uuid.Nil && (e.ReportID == nil || *e.ReportID != filter.ReportID) {
			continue
		}
		if filter.ImageID != uuid.Nil && (e.ImageID == nil || *e.ImageID != filter.ImageID) {
			continue
		}
		out = append(out, e)
	}
	// newest first; entries are appended in commit order
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return page(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (t *tx) DeleteAuditBefore(_ context.Context, cutoff time.Time) (int64, error) {
	kept := t.st.audit[:0:0]
	var deleted int64
	for _, e := range t.st.audit {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	t.st.audit = kept
	return deleted, nil
}

func (t *tx) GetImageVisibility(_ context.Context, imageID uuid.UUID) (models.Visibility, error) {
	img, ok := t.st.images[imageID]
	if !ok {
		return 0, store.ErrNotFound
	}
	return img.Visibility, nil
}

func (t *tx) SetImageVisibility(_ context.Context, imageID uuid.UUID, visibility models.Visibility, by models.Actor, at time.Time) error {
	img, ok := t.st.images[imageID]
	if !ok {
		return store.ErrNotFound
	}
	img.Visibility = visibility
	img.UpdatedBy = by
	img.UpdatedAt = at
	t.st.images[imageID] = img
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

var _ store.Tx = (*tx)(nil)
