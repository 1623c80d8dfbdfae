package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"REVIEW_DEADLINE_DAYS", "REVIEW_QUORUM", "RESOLVER_INTERVAL", "AUDIT_RETENTION_YEARS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 7, cfg.ReviewDeadlineDays)
	assert.Equal(t, 3, cfg.ReviewExtensionDays)
	assert.Equal(t, 3, cfg.ReviewQuorum)
	assert.Equal(t, 2, cfg.AuditRetentionYears)
	assert.Equal(t, 5*time.Minute, cfg.ResolverInterval)
	assert.Equal(t, 720*time.Hour, cfg.AuditPruneInterval)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("REVIEW_QUORUM", "5")
	t.Setenv("REVIEW_EXTENSION_DAYS", "2")
	t.Setenv("RESOLVER_INTERVAL", "90s")
	t.Setenv("RESOLVER_BATCH_SIZE", "not-a-number")

	cfg := Load()
	assert.Equal(t, 5, cfg.ReviewQuorum)
	assert.Equal(t, 2, cfg.ReviewExtensionDays)
	assert.Equal(t, 90*time.Second, cfg.ResolverInterval)
	assert.Equal(t, 500, cfg.ResolverBatchSize)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWTSecret:           "secret",
			DBPassword:          "pw",
			ReviewDeadlineDays:  7,
			ReviewExtensionDays: 3,
			ReviewQuorum:        3,
			AuditRetentionYears: 2,
			ResolverInterval:    time.Minute,
			AuditPruneInterval:  time.Hour,
		}
	}
	require.NoError(t, valid().Validate())

	cfg := valid()
	cfg.ReviewQuorum = 0
	cfg.AuditRetentionYears = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REVIEW_QUORUM")
	assert.Contains(t, err.Error(), "AUDIT_RETENTION_YEARS")

	cfg = valid()
	cfg.JWTSecret = ""
	assert.ErrorContains(t, cfg.Validate(), "JWT_SECRET")
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "mod", DBPassword: "pw", DBName: "moderation", DBSSLMode: "require"}
	assert.Equal(t, "host=db user=mod password=pw dbname=moderation port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}
