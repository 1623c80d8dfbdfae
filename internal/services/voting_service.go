package services

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

const maxCommentLength = 2000

// VotingService records votes and handles the manual transitions of a review.
// It never decides a review from the tally; that is the resolver's job.
type VotingService struct {
	store  store.Store
	deps   Deps
	logger *slog.Logger
}

func NewVotingService(st store.Store, deps Deps) *VotingService {
	deps = deps.withDefaults()
	return &VotingService{store: st, deps: deps, logger: deps.Logger}
}

// ReviewDetail is a review together with its current votes.
type ReviewDetail struct {
	Review models.Review `json:"review"`
	Tally  models.Tally  `json:"tally"`
	Votes  []models.Vote `json:"votes"`
}

// CastVote inserts or overwrites the voter's vote on an open review.
func (s *VotingService) CastVote(ctx context.Context, reviewID, voterID uuid.UUID, value models.VoteValue, comment *string) (*models.Vote, error) {
	if !value.Valid() {
		return nil, ErrInvalidVoteValue
	}
	if comment != nil && utf8.RuneCountInString(*comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}

	var vote models.Vote
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		// The share lock keeps the resolver from tallying until this vote commits.
		review, err := loadReview(ctx, tx, reviewID, store.LockShare)
		if err != nil {
			return err
		}
		if !review.IsOpen() {
			return ErrReviewClosed
		}

		now := s.deps.Clock.Now()
		vote = models.Vote{
			ReviewID:  reviewID,
			VoterID:   voterID,
			Value:     value,
			Comment:   comment,
			CreatedAt: now,
			UpdatedAt: now,
		}
		replaced, err := tx.UpsertVote(ctx, &vote)
		if err != nil {
			return fmt.Errorf("upsert vote: %w", err)
		}

		details := map[string]any{
			"value":    value.String(),
			"comment":  comment,
			"replaced": replaced,
		}
		return recordAudit(ctx, tx, s.deps.Clock, models.Human(voterID), models.ActionVoteCast, refsFor(&review), details)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("vote cast", "event", "vote_cast", "review_id", reviewID, "voter_id", voterID, "value", value.String())
	return &vote, nil
}

// CloseEarly closes an open review with a moderator-chosen outcome, bypassing
// the quorum rules.
func (s *VotingService) CloseEarly(ctx context.Context, reviewID, closerID uuid.UUID, outcome models.Outcome) (*models.Review, error) {
	if !outcome.Final() {
		return nil, ErrInvalidOutcome
	}

	var review models.Review
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		var err error
		review, err = loadReview(ctx, tx, reviewID, store.LockUpdate)
		if err != nil {
			return err
		}
		if !review.IsOpen() {
			return ErrReviewClosed
		}
		tally, err := tx.TallyVotes(ctx, reviewID)
		if err != nil {
			return fmt.Errorf("tally votes: %w", err)
		}
		return closeReview(ctx, tx, s.deps, &review, outcome, models.Human(closerID), tally, map[string]any{
			"early_close": true,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review closed early", append(logAttrsFor(&review), "event", "review_closed", "outcome", outcome.String())...)
	return &review, nil
}

// ExtendDeadline pushes the deadline of an open review once.
func (s *VotingService) ExtendDeadline(ctx context.Context, reviewID, extenderID uuid.UUID, extensionDays *int) (*models.Review, error) {
	days, err := pickDays(extensionDays, s.deps.Settings.ExtensionDays)
	if err != nil {
		return nil, err
	}

	var review models.Review
	err = s.store.Atomic(ctx, func(tx store.Tx) error {
		review, err = loadReview(ctx, tx, reviewID, store.LockUpdate)
		if err != nil {
			return err
		}
		if !review.IsOpen() {
			return ErrReviewClosed
		}
		return extendReview(ctx, tx, s.deps, &review, days, models.Human(extenderID), nil)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("review extended", append(logAttrsFor(&review), "event", "review_extended", "deadline", review.Deadline)...)
	return &review, nil
}

func (s *VotingService) GetReview(ctx context.Context, reviewID uuid.UUID) (*ReviewDetail, error) {
	var detail ReviewDetail
	err := s.store.Atomic(ctx, func(tx store.Tx) error {
		review, err := loadReview(ctx, tx, reviewID, store.LockNone)
		if err != nil {
			return err
		}
		votes, err := tx.ListVotes(ctx, reviewID)
		if err != nil {
			return fmt.Errorf("list votes: %w", err)
		}
		detail.Review = review
		detail.Votes = votes
		for _, v := range votes {
			detail.Tally.Add(v.Value)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

func (s *VotingService) ListReviews(ctx context.Context, filter store.ReviewFilter) ([]models.Review, int64, error) {
	filter.Limit = clampLimit(filter.Limit)
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.store.ListReviews(ctx, filter)
}
