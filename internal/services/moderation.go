package services

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/moderation-backend/internal/config"
)

// Clock supplies "now" for every deadline computation.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Settings carries the moderation policy values read from configuration.
type Settings struct {
	ReviewDeadlineDays  int
	ExtensionDays       int
	Quorum              int
	AuditRetentionYears int
	// ResolverBatchSize caps how many expired reviews one resolver run picks up.
	// Zero means no cap.
	ResolverBatchSize int
}

func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		ReviewDeadlineDays:  cfg.ReviewDeadlineDays,
		ExtensionDays:       cfg.ReviewExtensionDays,
		Quorum:              cfg.ReviewQuorum,
		AuditRetentionYears: cfg.AuditRetentionYears,
		ResolverBatchSize:   cfg.ResolverBatchSize,
	}
}

// Deps groups what every moderation service needs.
type Deps struct {
	Clock    Clock
	Settings Settings
	Logger   *slog.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	return d
}

func pickDays(override *int, fallback int) (int, error) {
	if override == nil {
		return fallback, nil
	}
	if *override < 1 {
		return 0, ErrInvalidDays
	}
	return *override, nil
}

func addDays(t time.Time, days int) time.Time {
	return t.Add(time.Duration(days) * 24 * time.Hour)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}
