package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/internal/errors"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ANALYSIS_WINDOW_DAYS", "FOCUS_INACTIVITY_MINUTES", "ACTIVE_MINUTES_PER_ACTION",
		"ENERGY_BASELINE", "TIMEZONE", "PATTERN_CATALOG", "DATABASE_URL", "DATABASE_DRIVER", "PORT", "UI_PORT",
		"MAX_CONCURRENT_ANALYSES", "DATA_FILE", "FEED_URL", "FEED_AUTH", "FEED_RATE_LIMIT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Analysis.WindowDays)
	assert.Equal(t, 15*time.Minute, cfg.Analysis.FocusInactivity)
	assert.Equal(t, 2*time.Minute, cfg.Analysis.ActivePerAction)
	assert.Equal(t, 50.0, cfg.Analysis.EnergyBaseline)
	assert.Equal(t, time.UTC, cfg.Analysis.Location)
	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "8081", cfg.Server.UIPort)
	assert.Equal(t, int64(4), cfg.Server.MaxConcurrentAnalyses)
	assert.Equal(t, "none", cfg.Data.FeedAuth)
	assert.Equal(t, 60, cfg.Data.FeedRateLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ANALYSIS_WINDOW_DAYS", "14")
	t.Setenv("TIMEZONE", "Europe/Berlin")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("DATABASE_DRIVER", "SQLITE3")
	t.Setenv("ENERGY_BASELINE", "60.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 14, cfg.Analysis.WindowDays)
	assert.Equal(t, "Europe/Berlin", cfg.Analysis.Location.String())
	assert.Equal(t, "sqlite3", cfg.Database.Driver)
	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 60.5, cfg.Analysis.EnergyBaseline)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"ANALYSIS_WINDOW_DAYS", "thirty"},
		{"ANALYSIS_WINDOW_DAYS", "2"},
		{"FOCUS_INACTIVITY_MINUTES", "0"},
		{"ENERGY_BASELINE", "120"},
		{"TIMEZONE", "Mars/Olympus"},
		{"DATABASE_DRIVER", "mysql"},
		{"MAX_CONCURRENT_ANALYSES", "-1"},
		{"FEED_AUTH", "oauth"},
		{"FEED_RATE_LIMIT", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
