package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/store"
	"github.com/google/uuid"
)

// Resolution reasons written to the audit details.
const (
	ReasonQuorumReached         = "quorum_reached"
	ReasonAutoExtend            = "deadline_expired_auto_extend"
	ReasonDefaultAfterExtension = "default_after_extension"
)

// Decision is what the resolver does with one expired review.
type Decision struct {
	Close   bool
	Outcome models.Outcome
	Reason  string
}

// Decide applies the resolution policy to a tally:
//   - quorum met without a tie: close with the majority;
//   - otherwise, if the one extension is unused: extend;
//   - otherwise: close with Keep.
func Decide(tally models.Tally, extensionUsed bool, quorum int) Decision {
	hasQuorum := tally.Total() >= quorum
	if hasQuorum && !tally.IsTie() {
		outcome := models.OutcomeRemove
		if tally.Keep > tally.Remove {
			outcome = models.OutcomeKeep
		}
		return Decision{Close: true, Outcome: outcome, Reason: ReasonQuorumReached}
	}
	if !extensionUsed {
		return Decision{Reason: ReasonAutoExtend}
	}
	return Decision{Close: true, Outcome: models.OutcomeKeep, Reason: ReasonDefaultAfterExtension}
}

// ResolveError describes one review the resolver failed to process.
type ResolveError struct {
	ReviewID uuid.UUID `json:"review_id"`
	Error    string    `json:"error"`
}

// ResolveSummary is the result of one resolver run.
// Processed = Closed + Extended + Skipped + Errors.
type ResolveSummary struct {
	Processed    int            `json:"processed"`
	Closed       int            `json:"closed"`
	Extended     int            `json:"extended"`
	Skipped      int            `json:"skipped"`
	Errors       int            `json:"errors"`
	ErrorDetails []ResolveError `json:"error_details"`
}

type resolution int

const (
	resolutionSkipped resolution = iota
	resolutionClosed
	resolutionExtended
)

// Resolver closes or extends open reviews whose deadline has passed.
type Resolver struct {
	store   store.Store
	deps    Deps
	logger  *slog.Logger
	onError func(reviewID uuid.UUID, err error)
}

func NewResolver(st store.Store, deps Deps) *Resolver {
	deps = deps.withDefaults()
	return &Resolver{store: st, deps: deps, logger: deps.Logger}
}

// OnError registers a callback for per-review failures, e.g. error tracking.
func (r *Resolver) OnError(fn func(reviewID uuid.UUID, err error)) {
	r.onError = fn
}

// ResolveExpiredReviews processes every open review past its deadline, each in
// its own unit of work. A failing review is recorded in the summary and the
// run continues. Only failing to list candidates, or cancellation, ends the
// run early with an error. Closed reviews are never selected again, so the
// call is safe to repeat.
func (r *Resolver) ResolveExpiredReviews(ctx context.Context) (ResolveSummary, error) {
	summary := ResolveSummary{ErrorDetails: []ResolveError{}}
	now := r.deps.Clock.Now()

	ids, err := r.store.ListExpiredReviewIDs(ctx, now, r.deps.Settings.ResolverBatchSize)
	if err != nil {
		return summary, fmt.Errorf("list expired reviews: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++

		res, err := r.resolveOne(ctx, id)
		if err != nil {
			summary.Errors++
			summary.ErrorDetails = append(summary.ErrorDetails, ResolveError{ReviewID: id, Error: err.Error()})
			r.logger.Error("review resolution failed", "event", "review_resolution_failed", "review_id", id.String(), "error", err.Error())
			if r.onError != nil {
				r.onError(id, err)
			}
			continue
		}
		switch res {
		case resolutionClosed:
			summary.Closed++
		case resolutionExtended:
			summary.Extended++
		default:
			summary.Skipped++
		}
	}

	if summary.Processed > 0 {
		r.logger.Info("expired reviews resolved",
			"event", "resolver_run",
			"processed", summary.Processed,
			"closed", summary.Closed,
			"extended", summary.Extended,
			"skipped", summary.Skipped,
			"errors", summary.Errors,
		)
	}
	return summary, nil
}

func (r *Resolver) resolveOne(ctx context.Context, id uuid.UUID) (res resolution, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = resolutionSkipped, fmt.Errorf("panic resolving review: %v", p)
		}
	}()

	err = r.store.Atomic(ctx, func(tx store.Tx) error {
		review, err := loadReview(ctx, tx, id, store.LockUpdate)
		if err != nil {
			return err
		}
		// Re-checked under the lock: a moderator may have closed or extended it
		// since the candidates were listed.
		if !review.IsOpen() || !review.Expired(r.deps.Clock.Now()) {
			res = resolutionSkipped
			return nil
		}

		tally, err := tx.TallyVotes(ctx, id)
		if err != nil {
			return fmt.Errorf("tally votes: %w", err)
		}
		decision := Decide(tally, review.ExtensionUsed, r.deps.Settings.Quorum)
		extra := map[string]any{
			"reason": decision.Reason,
			"quorum": r.deps.Settings.Quorum,
		}

		if decision.Close {
			res = resolutionClosed
			return closeReview(ctx, tx, r.deps, &review, decision.Outcome, models.System, tally, extra)
		}
		for k, v := range tallyDetails(tally) {
			extra[k] = v
		}
		res = resolutionExtended
		return extendReview(ctx, tx, r.deps, &review, r.deps.Settings.ExtensionDays, models.System, extra)
	})
	if err != nil {
		return resolutionSkipped, err
	}
	return res, nil
}
