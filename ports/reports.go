package ports

import (
	"context"
	"time"

	"perfpulse/domain/core"
	"perfpulse/domain/insight"
)

// ReportSummary is the listing view of a finished run
type ReportSummary struct {
	RunID       core.RunID `json:"run_id"`
	GeneratedAt time.Time  `json:"generated_at"`
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	Patterns    int        `json:"patterns"`
	QuickWins   int        `json:"quick_wins"`
}

// ReportStore keeps recent reports for the API and report server.
// Reports are held for the lifetime of the process only.
type ReportStore interface {
	Put(ctx context.Context, report insight.Report) error
	Get(ctx context.Context, id core.RunID) (*insight.Report, error)
	List(ctx context.Context, limit int) ([]ReportSummary, error)
}

// Summarize builds the listing view of a report
func Summarize(report insight.Report) ReportSummary {
	return ReportSummary{
		RunID:       report.RunID,
		GeneratedAt: report.GeneratedAt,
		WindowStart: report.Window.Start,
		WindowEnd:   report.Window.End,
		Patterns:    len(report.Patterns),
		QuickWins:   len(report.Plan.QuickWins),
	}
}
