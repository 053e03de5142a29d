// Package container wires configuration, sources and the analysis service
// for the entry points.
package container

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	feed "perfpulse/adapters/api"
	"perfpulse/adapters/excel"
	"perfpulse/adapters/memory"
	"perfpulse/adapters/postgres"
	"perfpulse/adapters/stats/engine"
	"perfpulse/app"
	"perfpulse/domain/activity"
	"perfpulse/internal"
	"perfpulse/internal/config"
	"perfpulse/internal/errors"
	"perfpulse/internal/metrics"
	"perfpulse/internal/migration"
	"perfpulse/internal/session"
	"perfpulse/internal/testkit"
	"perfpulse/ports"
)

// Source kinds reported by SourceName
const (
	SourceDatabase  = "database"
	SourceFeed      = "feed"
	SourceFile      = "file"
	SourceSynthetic = "synthetic"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB        *sqlx.DB
	Collector *metrics.Collector

	// Analysis
	Source     ports.ActivitySource
	SourceName string
	Engine     *engine.PerformanceEngine
	Registry   *session.Registry
	Service    *app.AnalysisService
}

// New creates a container with the engine, registry and collector. Call
// InitSource and then InitService before use.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	opts, err := app.EngineOptions(cfg.Analysis)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:    cfg,
		Logger:    logger,
		Collector: metrics.NewCollector(),
		Engine:    engine.NewPerformanceEngine(opts),
		Registry:  session.NewRegistry(session.DefaultRegistryCapacity),
	}, nil
}

// InitSource selects the activity source: a database when DATABASE_URL is
// set, then an HTTP feed, then a data file, else synthetic data ending now.
func (c *Container) InitSource(ctx context.Context, now time.Time) error {
	switch {
	case c.Config.Database.Enabled():
		db, err := OpenDatabase(ctx, c.Config.Database)
		if err != nil {
			return err
		}
		c.DB = db
		c.Source = postgres.NewActivityRepository(db)
		c.SourceName = SourceDatabase

	case c.Config.Data.FeedURL != "":
		c.Source = feed.NewFeedReader(FeedSource(c.Config.Data), c.Logger)
		c.SourceName = SourceFeed

	case c.Config.Data.File != "":
		batch, err := LoadFile(c.Config.Data.File, c.Config.Analysis.Location, c.Logger)
		if err != nil {
			return err
		}
		c.Source = memory.NewSource(batch)
		c.SourceName = SourceFile

	default:
		gen := testkit.DefaultGeneratorConfig()
		gen.End = now
		gen.Days = c.Config.Analysis.WindowDays
		gen.Location = c.Config.Analysis.Location
		c.Source = memory.NewSource(testkit.NewPerformanceGenerator(gen).Generate())
		c.SourceName = SourceSynthetic
	}

	c.Logger.Info("activity source: %s", c.SourceName)
	return nil
}

// InitService builds the analysis service over the selected source. A nil
// store uses the container's registry.
func (c *Container) InitService(store ports.ReportStore) error {
	if c.Source == nil {
		return errors.ConfigInvalid("activity source not initialized")
	}
	if store == nil {
		store = c.Registry
	}
	c.Service = app.NewAnalysisService(c.Source, c.Engine, store, c.Collector, c.Logger)
	return nil
}

// Close releases the database connection, if any, and flushes the logger
func (c *Container) Close() error {
	var err error
	if c.DB != nil {
		err = c.DB.Close()
	}
	c.Logger.Sync()
	return err
}

// OpenDatabase connects, pings and migrates the configured database
func OpenDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, cfg.Driver, cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	if cfg.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// FeedSource maps the data configuration onto an HTTP feed configuration.
// Basic auth takes FEED_TOKEN as user:password.
func FeedSource(cfg config.DataConfig) *feed.FeedSource {
	src := feed.DefaultFeedSource(cfg.FeedURL)
	src.AuthMethod = cfg.FeedAuth
	src.DataPath = cfg.FeedDataPath
	src.RateLimit = cfg.FeedRateLimit

	if cfg.FeedAuth == "basic" {
		user, password, _ := strings.Cut(cfg.FeedToken, ":")
		src.Username = user
		src.Password = password
	} else {
		src.AuthToken = cfg.FeedToken
	}
	return src
}

// LoadFile reads a JSON feed document, xlsx workbook or csv export
func LoadFile(path string, loc *time.Location, logger *internal.Logger) (activity.Batch, error) {
	if logger == nil {
		logger = internal.NewNopLogger()
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		batch, stats, err := feed.LoadFile(path)
		if err != nil {
			return activity.Batch{}, err
		}
		logger.Info("loaded %s: %d records, %d invalid timestamps, %d skipped items",
			path, stats.Records, stats.InvalidTimestamps, stats.SkippedNonObjects+stats.SkippedEnergyItems)
		return batch, nil

	case ".xlsx", ".csv":
		batch, stats, err := excel.Load(path, loc, logger)
		if err != nil {
			return activity.Batch{}, err
		}
		logger.Info("loaded %s: %d rows, %d skipped", path, stats.Rows, stats.Skipped)
		return batch, nil
	}

	return activity.Batch{}, errors.InvalidInput("unsupported data file " + path + ": want .json, .xlsx or .csv")
}
