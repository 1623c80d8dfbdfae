package services_test

import (
	"errors"
	"testing"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVote_RevoteUpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())
	voter := uuid.New()

	first, err := f.voting.CastVote(f.ctx, review.ID, voter, models.VoteKeep, nil)
	require.NoError(t, err)
	f.clock.Advance(day)
	comment := "changed my mind"
	_, err = f.voting.CastVote(f.ctx, review.ID, voter, models.VoteRemove, &comment)
	require.NoError(t, err)

	detail, err := f.voting.GetReview(f.ctx, review.ID)
	require.NoError(t, err)
	require.Len(t, detail.Votes, 1)
	assert.Equal(t, models.VoteRemove, detail.Votes[0].Value)
	assert.Equal(t, &comment, detail.Votes[0].Comment)
	assert.Equal(t, first.CreatedAt, detail.Votes[0].CreatedAt)
	assert.Equal(t, f.clock.Now(), detail.Votes[0].UpdatedAt)
	assert.Equal(t, models.Tally{Remove: 1}, detail.Tally)

	cast := f.auditFor(store.AuditFilter{ReviewID: review.ID, Action: models.ActionVoteCast})
	require.Len(t, cast, 2)
	// newest first
	assert.Equal(t, true, details(t, cast[0])["replaced"])
	assert.Equal(t, "remove", details(t, cast[0])["value"])
	assert.Equal(t, "changed my mind", details(t, cast[0])["comment"])
	assert.Equal(t, false, details(t, cast[1])["replaced"])
}

func TestCastVote_SameVoteTwiceIsOneRow(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())
	voter := uuid.New()

	for i := 0; i < 2; i++ {
		_, err := f.voting.CastVote(f.ctx, review.ID, voter, models.VoteKeep, nil)
		require.NoError(t, err)
	}

	detail, err := f.voting.GetReview(f.ctx, review.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Votes, 1)
	assert.Equal(t, 1, detail.Tally.Total())
}

func TestCastVote_DoesNotResolve(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())
	f.castVotes(review.ID, models.VoteRemove, models.VoteRemove, models.VoteRemove, models.VoteRemove)

	assert.Equal(t, models.ReviewOpen, f.review(review.ID).Status)
}

func TestCastVote_Errors(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())

	_, err := f.voting.CastVote(f.ctx, review.ID, uuid.New(), models.VoteValue(9), nil)
	assert.ErrorIs(t, err, services.ErrValidation)
	assert.Equal(t, "validation_error", services.Kind(err))

	_, err = f.voting.CastVote(f.ctx, uuid.New(), uuid.New(), models.VoteKeep, nil)
	assert.ErrorIs(t, err, services.ErrReviewNotFound)

	_, err = f.voting.CloseEarly(f.ctx, review.ID, f.moderator, models.OutcomeRemove)
	require.NoError(t, err)
	_, err = f.voting.CastVote(f.ctx, review.ID, uuid.New(), models.VoteKeep, nil)
	assert.ErrorIs(t, err, services.ErrInvalidState)
	assert.Equal(t, "invalid_state", services.Kind(err))
}

func TestCastVote_AuditFailureDropsVote(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())
	f.store.FailAudit(func(e models.AuditEntry) error {
		if e.Action == models.ActionVoteCast {
			return errors.New("audit down")
		}
		return nil
	})

	_, err := f.voting.CastVote(f.ctx, review.ID, uuid.New(), models.VoteKeep, nil)
	require.Error(t, err)

	detail, err := f.voting.GetReview(f.ctx, review.ID)
	require.NoError(t, err)
	assert.Empty(t, detail.Votes)
}

func TestCloseEarly(t *testing.T) {
	f := newFixture(t)
	imageID := f.newImage()
	review := f.startReview(imageID)
	f.castVotes(review.ID, models.VoteKeep)

	closed, err := f.voting.CloseEarly(f.ctx, review.ID, f.moderator, models.OutcomeRemove)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewClosed, closed.Status)
	assert.Equal(t, models.OutcomeRemove, closed.Outcome)
	assert.Equal(t, models.Human(f.moderator), closed.ClosedBy)
	assert.Equal(t, models.VisibilityRemoved, f.visibility(imageID))

	entries := f.auditFor(store.AuditFilter{ReviewID: review.ID, Action: models.ActionReviewClosed})
	require.Len(t, entries, 1)
	d := details(t, entries[0])
	assert.Equal(t, true, d["early_close"])
	assert.Equal(t, false, d["automatic"])
	assert.EqualValues(t, 1, d["keep"])
	assert.Equal(t, "pending_review", d["previous_visibility"])

	_, err = f.voting.CloseEarly(f.ctx, review.ID, f.moderator, models.OutcomeKeep)
	assert.ErrorIs(t, err, services.ErrInvalidState)
	assert.Equal(t, models.OutcomeRemove, f.review(review.ID).Outcome)
}

func TestCloseEarly_RejectsPendingOutcome(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())

	_, err := f.voting.CloseEarly(f.ctx, review.ID, f.moderator, models.OutcomePending)
	assert.ErrorIs(t, err, services.ErrInvalidOutcome)
	assert.Equal(t, models.ReviewOpen, f.review(review.ID).Status)
}

func TestExtendDeadline_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())

	f.clock.Advance(2 * day)
	extended, err := f.voting.ExtendDeadline(f.ctx, review.ID, f.moderator, nil)
	require.NoError(t, err)
	assert.True(t, extended.ExtensionUsed)
	assert.Equal(t, f.clock.Now().Add(3*day), extended.Deadline)

	_, err = f.voting.ExtendDeadline(f.ctx, review.ID, f.moderator, nil)
	assert.ErrorIs(t, err, services.ErrExtensionUsed)
	assert.ErrorIs(t, err, services.ErrInvalidState)
	assert.Equal(t, extended.Deadline, f.review(review.ID).Deadline)

	entries := f.auditFor(store.AuditFilter{ReviewID: review.ID, Action: models.ActionReviewExtended})
	assert.Len(t, entries, 1)
}

func TestExtendDeadline_ClosedReview(t *testing.T) {
	f := newFixture(t)
	review := f.startReview(f.newImage())
	_, err := f.voting.CloseEarly(f.ctx, review.ID, f.moderator, models.OutcomeKeep)
	require.NoError(t, err)

	days := 5
	_, err = f.voting.ExtendDeadline(f.ctx, review.ID, f.moderator, &days)
	assert.ErrorIs(t, err, services.ErrReviewClosed)
}

func TestListReviews(t *testing.T) {
	f := newFixture(t)
	open := f.startReview(f.newImage())
	closed := f.startReview(f.newImage())
	_, err := f.voting.CloseEarly(f.ctx, closed.ID, f.moderator, models.OutcomeKeep)
	require.NoError(t, err)

	reviews, total, err := f.voting.ListReviews(f.ctx, store.ReviewFilter{Status: models.ReviewOpen})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, reviews, 1)
	assert.Equal(t, open.ID, reviews[0].ID)

	_, total, err = f.voting.ListReviews(f.ctx, store.ReviewFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}
