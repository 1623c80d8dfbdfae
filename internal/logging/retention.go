package logging

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/models"
	"gorm.io/gorm"
)

// PruneSystemLogs deletes system_logs rows older than retention.
func PruneSystemLogs(ctx context.Context, db *gorm.DB, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention)
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}
