package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"perfpulse/adapters/stats/engine"
	"perfpulse/adapters/stats/patterns"
	"perfpulse/adapters/stats/temporal"
	"perfpulse/domain/activity"
	"perfpulse/domain/insight"
	"perfpulse/internal"
	"perfpulse/internal/config"
	"perfpulse/internal/errors"
	"perfpulse/internal/metrics"
	"perfpulse/internal/session"
	"perfpulse/ports"
)

// AnalysisService fetches activity from the configured sources and runs the
// analysis engine over it. Fetches for one run happen concurrently; the
// engine only starts once all three have returned.
type AnalysisService struct {
	source    ports.ActivitySource
	engine    *engine.PerformanceEngine
	store     ports.ReportStore
	collector *metrics.Collector
	logger    *internal.Logger
}

// NewAnalysisService creates an analysis service. store and collector may be
// nil, in which case reports are not kept and no metrics are recorded.
func NewAnalysisService(source ports.ActivitySource, eng *engine.PerformanceEngine, store ports.ReportStore, collector *metrics.Collector, logger *internal.Logger) *AnalysisService {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &AnalysisService{
		source:    source,
		engine:    eng,
		store:     store,
		collector: collector,
		logger:    logger,
	}
}

// Engine returns the engine the service runs
func (s *AnalysisService) Engine() *engine.PerformanceEngine {
	return s.engine
}

// Range returns the fetch range for a run ending on the day of now
func (s *AnalysisService) Range(now time.Time) ports.TimeRange {
	cfg := s.engine.Config()
	window := temporal.NewGrid(now, cfg.WindowDays, cfg.Location).Window()
	return ports.TimeRange{
		Start: window.Start,
		End:   window.End.AddDate(0, 0, 1),
	}
}

// Fetch collects one run's batch from every source
func (s *AnalysisService) Fetch(ctx context.Context, r ports.TimeRange) (activity.Batch, error) {
	var batch activity.Batch
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := s.source.FetchEvents(gctx, r)
		if err != nil {
			return errors.ExternalServiceError("event source", err)
		}
		batch.Events = events
		return nil
	})
	g.Go(func() error {
		tasks, err := s.source.FetchTasks(gctx, r)
		if err != nil {
			return errors.ExternalServiceError("task source", err)
		}
		batch.Tasks = tasks
		return nil
	})
	g.Go(func() error {
		energy, err := s.source.FetchEnergy(gctx, r)
		if err != nil {
			return errors.ExternalServiceError("energy source", err)
		}
		batch.Energy = energy
		return nil
	})

	if err := g.Wait(); err != nil {
		return activity.Batch{}, err
	}
	return batch, nil
}

// Run performs one full analysis ending on the day of now
func (s *AnalysisService) Run(ctx context.Context, now time.Time) (*insight.Report, error) {
	started := time.Now()
	if s.collector != nil {
		defer s.collector.Track()()
	}

	r := s.Range(now)
	s.logger.Debug("fetching activity from %s to %s", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))

	batch, err := s.Fetch(ctx, r)
	if err != nil {
		s.recordFailure(started)
		s.logger.Error("analysis fetch failed: %v", err)
		return nil, err
	}

	return s.analyze(ctx, session.New(now), batch, started)
}

// RunBatch analyzes an already fetched batch, used by file-driven callers
func (s *AnalysisService) RunBatch(ctx context.Context, now time.Time, batch activity.Batch) (*insight.Report, error) {
	return s.analyze(ctx, session.New(now), batch, time.Now())
}

func (s *AnalysisService) analyze(ctx context.Context, sess *session.Session, batch activity.Batch, started time.Time) (*insight.Report, error) {
	logger := s.logger.With(zap.String("run_id", sess.ID.String()))

	if err := ctx.Err(); err != nil {
		s.recordFailure(started)
		return nil, err
	}

	report := s.engine.Analyze(sess, batch)

	if dropped := report.Normalization.TotalDropped(); dropped > 0 {
		logger.Warn("dropped %d malformed records (%s)", dropped, dropSummary(report.Normalization.Dropped))
	}
	logger.Info("analysis complete: %d days, %d correlations, %d patterns, %d segments, %d causal links",
		report.Window.Days, len(report.Correlations), len(report.Patterns), len(report.Segments), len(report.CausalLinks))
	hits, misses := sess.Cache().Stats()
	logger.Debug("session cache: %d hits, %d misses", hits, misses)

	if s.collector != nil {
		s.collector.RecordRun(report, time.Since(started))
	}
	if s.store != nil {
		if err := s.store.Put(ctx, report); err != nil {
			return nil, errors.Wrap(err, "failed to store report")
		}
	}
	return &report, nil
}

func (s *AnalysisService) recordFailure(started time.Time) {
	if s.collector != nil {
		s.collector.RecordFailure(time.Since(started))
	}
}

// dropSummary renders drop counts as "reason=n" pairs in reason order
func dropSummary(dropped map[string]int) string {
	reasons := make([]string, 0, len(dropped))
	for reason := range dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, dropped[reason]))
	}
	return strings.Join(parts, ", ")
}

// EngineOptions converts the analysis configuration into engine options,
// merging the pattern catalog file with the canonical patterns when set
func EngineOptions(cfg config.AnalysisConfig) (engine.Options, error) {
	normalizer := temporal.DefaultNormalizerConfig()
	normalizer.WindowDays = cfg.WindowDays
	normalizer.FocusInactivity = cfg.FocusInactivity
	normalizer.ActivePerAction = cfg.ActivePerAction
	normalizer.EnergyBaseline = cfg.EnergyBaseline
	normalizer.Location = cfg.Location

	opts := engine.Options{Normalizer: normalizer}
	if cfg.PatternCatalog == "" {
		return opts, nil
	}

	custom, err := patterns.LoadCatalogFile(cfg.PatternCatalog)
	if err != nil {
		return engine.Options{}, errors.WithCode(errors.CodeConfigInvalid, errors.Wrapf(err, "failed to load pattern catalog %s", cfg.PatternCatalog))
	}
	merged, err := patterns.WithCanonical(custom)
	if err != nil {
		return engine.Options{}, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	opts.Patterns = merged
	return opts, nil
}
