package services_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const day = 24 * time.Hour

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	t          *testing.T
	ctx        context.Context
	clock      *fakeClock
	store      *memory.Store
	reports    *services.ReportService
	escalation *services.EscalationService
	voting     *services.VotingService
	audit      *services.AuditService
	resolver   *services.Resolver
	moderator  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := memory.NewStore()
	deps := services.Deps{
		Clock: clock,
		Settings: services.Settings{
			ReviewDeadlineDays:  7,
			ExtensionDays:       3,
			Quorum:              3,
			AuditRetentionYears: 2,
		},
		Logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}

	return &fixture{
		t:          t,
		ctx:        context.Background(),
		clock:      clock,
		store:      st,
		reports:    services.NewReportService(st, deps),
		escalation: services.NewEscalationService(st, deps),
		voting:     services.NewVotingService(st, deps),
		audit:      services.NewAuditService(st, deps),
		resolver:   services.NewResolver(st, deps),
		moderator:  uuid.New(),
	}
}

func (f *fixture) newImage() uuid.UUID {
	id := uuid.New()
	f.store.PutImage(models.Image{
		ID:         id,
		OwnerID:    uuid.New(),
		Visibility: models.VisibilityActive,
		CreatedAt:  f.clock.Now(),
		UpdatedAt:  f.clock.Now(),
	})
	return id
}

func (f *fixture) visibility(imageID uuid.UUID) models.Visibility {
	f.t.Helper()
	v, err := f.store.GetImageVisibility(f.ctx, imageID)
	require.NoError(f.t, err)
	return v
}

func (f *fixture) fileReport(imageID uuid.UUID) *models.Report {
	f.t.Helper()
	report, err := f.reports.FileReport(f.ctx, imageID, uuid.New(), models.CategoryOffensive, "not appropriate")
	require.NoError(f.t, err)
	return report
}

func (f *fixture) startReview(imageID uuid.UUID) *models.Review {
	f.t.Helper()
	review, err := f.escalation.StartReview(f.ctx, imageID, f.moderator, nil)
	require.NoError(f.t, err)
	return review
}

func (f *fixture) castVotes(reviewID uuid.UUID, values ...models.VoteValue) {
	f.t.Helper()
	for _, v := range values {
		_, err := f.voting.CastVote(f.ctx, reviewID, uuid.New(), v, nil)
		require.NoError(f.t, err)
	}
}

func (f *fixture) review(id uuid.UUID) models.Review {
	f.t.Helper()
	review, err := f.store.GetReview(f.ctx, id, store.LockNone)
	require.NoError(f.t, err)
	return review
}

func (f *fixture) auditFor(filter store.AuditFilter) []models.AuditEntry {
	f.t.Helper()
	filter.Limit = 1000
	entries, _, err := f.store.ListAudit(f.ctx, filter)
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) auditCount() int {
	return len(f.auditFor(store.AuditFilter{}))
}

func details(t *testing.T, entry models.AuditEntry) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(entry.Details, &out))
	return out
}
