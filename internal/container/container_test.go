package container

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perfpulse/internal"
	"perfpulse/internal/config"
	"perfpulse/internal/errors"
	"perfpulse/internal/testkit"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel: "ERROR",
		Analysis: config.AnalysisConfig{
			WindowDays:      14,
			FocusInactivity: 15 * time.Minute,
			ActivePerAction: 2 * time.Minute,
			EnergyBaseline:  50,
			Location:        time.UTC,
		},
		Database: config.DatabaseConfig{Driver: "postgres"},
		Server:   config.ServerConfig{MaxConcurrentAnalyses: 2},
		Data:     config.DataConfig{FeedAuth: "none", FeedRateLimit: 60},
	}
}

func TestContainer_SyntheticSource(t *testing.T) {
	c, err := New(testConfig(), internal.NewNopLogger())
	require.NoError(t, err)

	now := time.Date(2024, 3, 31, 18, 0, 0, 0, time.UTC)
	require.NoError(t, c.InitSource(context.Background(), now))
	assert.Equal(t, SourceSynthetic, c.SourceName)

	require.NoError(t, c.InitService(nil))
	report, err := c.Service.Run(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 14, report.Window.Days)
	assert.Positive(t, report.Normalization.EventsAccepted)

	_, err = c.Registry.Get(context.Background(), report.RunID)
	assert.NoError(t, err)
	require.NoError(t, c.Close())
}

func TestContainer_FileSource(t *testing.T) {
	gen := testkit.DefaultGeneratorConfig()
	gen.Days = 7
	batch := testkit.NewPerformanceGenerator(gen).Generate()

	path := filepath.Join(t.TempDir(), "activity.json")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, testkit.WriteJSON(f, batch))
	require.NoError(t, f.Close())

	cfg := testConfig()
	cfg.Data.File = path
	c, err := New(cfg, internal.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, c.InitSource(context.Background(), gen.End))
	assert.Equal(t, SourceFile, c.SourceName)

	require.NoError(t, c.InitService(nil))
	events, err := c.Source.FetchEvents(context.Background(), c.Service.Range(gen.End))
	require.NoError(t, err)
	assert.Len(t, events, len(batch.Events))
}

func TestContainer_DatabaseSource(t *testing.T) {
	cfg := testConfig()
	cfg.Database = config.DatabaseConfig{URL: ":memory:", Driver: "sqlite3"}
	c, err := New(cfg, internal.NewNopLogger())
	require.NoError(t, err)
	require.NoError(t, c.InitSource(context.Background(), time.Now()))
	defer c.Close()

	assert.Equal(t, SourceDatabase, c.SourceName)
	require.NotNil(t, c.DB)

	var tables int
	require.NoError(t, c.DB.Get(&tables, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('activity_events', 'tasks', 'energy_estimates')`))
	assert.Equal(t, 3, tables)
}

func TestContainer_InitServiceWithoutSource(t *testing.T) {
	c, err := New(testConfig(), nil)
	require.NoError(t, err)
	err = c.InitService(nil)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestFeedSource(t *testing.T) {
	src := FeedSource(config.DataConfig{FeedURL: "https://feed.example.com/", FeedAuth: "basic", FeedToken: "ana:s3cret", FeedRateLimit: 30})
	assert.Equal(t, "ana", src.Username)
	assert.Equal(t, "s3cret", src.Password)
	assert.Empty(t, src.AuthToken)
	assert.Equal(t, 30, src.RateLimit)

	src = FeedSource(config.DataConfig{FeedURL: "https://feed.example.com/", FeedAuth: "bearer", FeedToken: "tok", FeedDataPath: "data"})
	assert.Equal(t, "tok", src.AuthToken)
	assert.Equal(t, "data", src.DataPath)
}

func TestLoadFile_Unsupported(t *testing.T) {
	_, err := LoadFile("activity.parquet", time.UTC, nil)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
}
