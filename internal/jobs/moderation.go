package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/services"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const systemLogCleanupInterval = 24 * time.Hour

// ResolverJob closes or extends expired reviews. Per-review failures are part
// of the summary, so only a failed listing fails the job.
func ResolverJob(resolver *services.Resolver, interval time.Duration) Job {
	return Job{
		Name:       "review_resolver",
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := resolver.ResolveExpiredReviews(ctx)
			return err
		},
	}
}

func AuditPruneJob(audit *services.AuditService, interval time.Duration) Job {
	return Job{
		Name:     "audit_prune",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := audit.PruneDefault(ctx)
			return err
		},
	}
}

// SystemLogCleanupJob deletes persisted application logs older than retention,
// once a day.
func SystemLogCleanupJob(db *gorm.DB, retention time.Duration, clock services.Clock) Job {
	return Job{
		Name:       "system_log_cleanup",
		Interval:   systemLogCleanupInterval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			deleted, err := logging.PruneSystemLogs(ctx, db, retention, clock.Now())
			if err != nil {
				return err
			}
			if deleted > 0 {
				slog.Info("old system logs cleaned up", "event", "system_log_cleanup", "deleted", deleted)
			}
			return nil
		},
	}
}

// CaptureReviewError is a Resolver.OnError callback that forwards per-review
// failures to Sentry.
func CaptureReviewError(reviewID uuid.UUID, err error) {
	CaptureError(err, map[string]string{
		"job":       "review_resolver",
		"review_id": reviewID.String(),
	})
}
