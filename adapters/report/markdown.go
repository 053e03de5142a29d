// Package report renders an analysis report as markdown or HTML. It only
// formats the structured findings; no prose is generated.
package report

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strings"
	"text/template"
	"time"

	"perfpulse/adapters/stats/correlation"
	"perfpulse/domain/insight"
	"perfpulse/internal/errors"
)

// MaxCorrelationRows caps the correlation table
const MaxCorrelationRows = 10

const markdownTemplate = `# Performance report

- Run: {{ .RunID }}
- Window: {{ date .Window.Start }} to {{ date .Window.End }} ({{ .Window.Days }} days)
- Generated: {{ datetime .GeneratedAt }}

## Key insights
{{ if .Plan.KeyInsights }}
{{ range .Plan.KeyInsights }}- **{{ cell .Title }}** {{ cell .Detail }} (score {{ num .Score }})
{{ end }}{{ else }}
No key insights for this window.
{{ end }}
{{ template "recs" (section "Quick wins" .Plan.QuickWins) }}
{{ template "recs" (section "Long-term strategy" .Plan.LongTermStrategy) }}
{{ template "recs" (section "Experiments to try" .Plan.ExperimentsToTry) }}
## Correlations
{{ with topCorrelations .Correlations }}
| Factor | Factor | r | Rank rho | Strength | Confidence | p (reference) |
|---|---|---|---|---|---|---|
{{ range . }}| {{ .Factor1 }} | {{ .Factor2 }} | {{ coef .Coefficient }} | {{ coef .RankCoefficient }} | {{ .Strength }} | {{ num .HeuristicConfidence }} | {{ pval .ReferencePValue }} |
{{ end }}{{ else }}
No correlations above the reporting threshold.
{{ end }}{{ if .Plan.SurprisingFindings }}
### Surprising findings

{{ range .Plan.SurprisingFindings }}- {{ .Factor1 }} and {{ .Factor2 }}: r = {{ coef .Coefficient }}
{{ end }}{{ end }}
## Patterns
{{ if .Patterns }}
| Pattern | Frequency | Predictive accuracy | Matched days |
|---|---|---|---|
{{ range .Patterns }}| {{ cell .Name }} | {{ pct .Frequency }} | {{ num .PredictiveAccuracy }} | {{ len .MatchedDays }} |
{{ end }}{{ else }}
No recurring patterns.
{{ end }}
## Segments
{{ if .Segments }}
| Segment | Days | Share | Characteristics |
|---|---|---|---|
{{ range .Segments }}| {{ cell .Name }} | {{ .Size }} | {{ pct .Fraction }} | {{ cell (join .Characteristics) }} |
{{ end }}{{ else }}
No segments had members.
{{ end }}
## Lagged relationships
{{ if .CausalLinks }}
| Cause | Effect | Lag (days) | r | Strength | Confidence |
|---|---|---|---|---|---|
{{ range .CausalLinks }}| {{ .Cause }} | {{ .Effect }} | {{ .LagDays }} | {{ coef .Coefficient }} | {{ num .Strength }} | {{ num .HeuristicConfidence }} |
{{ end }}{{ else }}
No lagged relationships above the reporting threshold.
{{ end }}
## Data quality

- Events accepted: {{ .Normalization.EventsAccepted }}
- Tasks accepted: {{ .Normalization.TasksAccepted }}
{{ range dropped .Normalization.Dropped }}- Dropped ({{ .Reason }}): {{ .Count }}
{{ end }}{{ if .Profiles }}
### Metric profiles

| Metric | Mean | Std dev | Median | Min | Max | Outliers | Zero days |
|---|---|---|---|---|---|---|---|
{{ range .Profiles }}| {{ .Metric }} | {{ num .Mean }} | {{ num .StdDev }} | {{ num .Median }} | {{ num .Min }} | {{ num .Max }} | {{ .Outliers }} | {{ .ZeroDays }} |
{{ end }}{{ end }}
{{ define "recs" }}## {{ .Title }}
{{ if .Items }}
| Action | Source | Expected improvement | Confidence | Difficulty |
|---|---|---|---|---|
{{ range .Items }}| {{ cell .Action }} | {{ .Source }} | {{ num .ExpectedImprovement }} | {{ num .Confidence }} | {{ .Difficulty }} |
{{ end }}{{ else }}
None.
{{ end }}{{ end }}`

type recSection struct {
	Title string
	Items []insight.Recommendation
}

type dropCount struct {
	Reason string
	Count  int
}

var funcs = template.FuncMap{
	"date":     func(t time.Time) string { return t.Format("2006-01-02") },
	"datetime": func(t time.Time) string { return t.Format(time.RFC3339) },
	"num":      func(f float64) string { return fmt.Sprintf("%.1f", round(f)) },
	"coef":     func(f float64) string { return fmt.Sprintf("%+.2f", f) },
	"pct":      func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
	"pval":     formatPValue,
	"cell":     escapeCell,
	"join":     func(s []string) string { return strings.Join(s, "; ") },
	"section": func(title string, items []insight.Recommendation) recSection {
		return recSection{Title: title, Items: items}
	},
	"topCorrelations": topCorrelations,
	"dropped":         droppedCounts,
}

var tmpl = template.Must(template.New("report").Funcs(funcs).Parse(markdownTemplate))

// Markdown renders the report as a markdown document
func Markdown(report insight.Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, report); err != nil {
		return nil, errors.Wrap(err, "failed to render markdown report")
	}
	return buf.Bytes(), nil
}

func formatPValue(p float64) string {
	if p < 0.001 {
		return "<0.001"
	}
	return fmt.Sprintf("%.3f", p)
}

// escapeCell keeps user-provided text from breaking table rows
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// topCorrelations returns the strongest correlations by magnitude
func topCorrelations(results []insight.CorrelationResult) []insight.CorrelationResult {
	sorted := append([]insight.CorrelationResult(nil), results...)
	correlation.SortByMagnitude(sorted)
	if len(sorted) > MaxCorrelationRows {
		sorted = sorted[:MaxCorrelationRows]
	}
	return sorted
}

func droppedCounts(dropped map[string]int) []dropCount {
	counts := make([]dropCount, 0, len(dropped))
	for reason, n := range dropped {
		if n > 0 {
			counts = append(counts, dropCount{Reason: reason, Count: n})
		}
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Reason < counts[j].Reason
	})
	return counts
}

// round keeps rendered numbers stable for values that print as -0.0
func round(f float64) float64 {
	if math.Abs(f) < 0.05 {
		return 0
	}
	return f
}
