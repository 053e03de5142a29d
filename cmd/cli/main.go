package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"perfpulse/adapters/excel"
	"perfpulse/adapters/report"
	"perfpulse/domain/insight"
	"perfpulse/internal"
	"perfpulse/internal/config"
	"perfpulse/internal/container"
	"perfpulse/internal/testkit"
)

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "perfpulse",
		Short: "Personal performance analytics from activity and task data",
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(),
		newDemoCmd(),
		newPatternsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAnalyzeCmd() *cobra.Command {
	var dataFile string
	var nowFlag string
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the report",
		Long: `Run one analysis over the configured activity source and print the report.

The source is chosen from the environment (DATABASE_URL, FEED_URL, DATA_FILE),
or from --file. Without any source a synthetic 30-day history is analyzed.

Example: perfpulse analyze --file export.xlsx --now 2024-03-31T18:00:00Z --format markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if nowFlag != "" {
				parsed, err := time.Parse(time.RFC3339, nowFlag)
				if err != nil {
					return fmt.Errorf("invalid --now (use RFC3339): %w", err)
				}
				now = parsed
			}
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), dataFile, now, format, outPath)
		},
	}

	cmd.Flags().StringVar(&dataFile, "file", "", "Activity export to analyze (.json, .xlsx or .csv)")
	cmd.Flags().StringVar(&nowFlag, "now", "", "Analysis time in RFC3339 (default: current time)")
	cmd.Flags().StringVar(&format, "format", "summary", "Output format: summary|json|markdown|html")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the output to a file instead of stdout")
	return cmd
}

func runAnalyze(ctx context.Context, stdout io.Writer, dataFile string, now time.Time, format, outPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dataFile != "" {
		cfg.Database.URL = ""
		cfg.Data.FeedURL = ""
		cfg.Data.File = dataFile
	}

	c, err := container.New(cfg, internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)))
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.InitSource(ctx, now); err != nil {
		return err
	}
	if err := c.InitService(nil); err != nil {
		return err
	}

	result, err := c.Service.Run(ctx, now)
	if err != nil {
		return err
	}

	out, err := render(*result, format)
	if err != nil {
		return err
	}
	if outPath != "" {
		return os.WriteFile(outPath, out, 0o644)
	}
	_, err = stdout.Write(out)
	return err
}

func render(r insight.Report, format string) ([]byte, error) {
	switch format {
	case "summary":
		return []byte(summary(r)), nil
	case "json":
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "markdown":
		return report.Markdown(r)
	case "html":
		return report.HTMLPage(r)
	}
	return nil, fmt.Errorf("unknown format %q (want summary, json, markdown or html)", format)
}

func summary(r insight.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s: %s to %s (%d days)\n", r.RunID,
		r.Window.Start.Format("2006-01-02"), r.Window.End.Format("2006-01-02"), r.Window.Days)
	fmt.Fprintf(&b, "Events accepted: %d, tasks accepted: %d\n",
		r.Normalization.EventsAccepted, r.Normalization.TasksAccepted)
	fmt.Fprintf(&b, "Correlations: %d, patterns: %d, segments: %d, lagged links: %d\n",
		len(r.Correlations), len(r.Patterns), len(r.Segments), len(r.CausalLinks))

	if len(r.Plan.KeyInsights) > 0 {
		b.WriteString("\nKey insights:\n")
		for _, ki := range r.Plan.KeyInsights {
			fmt.Fprintf(&b, "  - %s: %s\n", ki.Title, ki.Detail)
		}
	}
	if len(r.Plan.QuickWins) > 0 {
		b.WriteString("\nQuick wins:\n")
		for _, rec := range r.Plan.QuickWins {
			fmt.Fprintf(&b, "  - %s (+%.1f, %s)\n", rec.Action, rec.ExpectedImprovement, rec.Difficulty)
		}
	}
	return b.String()
}

func newDemoCmd() *cobra.Command {
	var cfg testkit.GeneratorConfig
	var endFlag string
	var outPath string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Generate a synthetic activity history",
		Long: `Generate a deterministic synthetic activity history for demos and tests.

The output format follows the --out extension: .json writes a feed document,
.xlsx writes a workbook with events, tasks and energy sheets.

Example: perfpulse demo --seed 7 --days 60 --out demo.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if endFlag != "" {
				end, err := time.Parse(time.RFC3339, endFlag)
				if err != nil {
					return fmt.Errorf("invalid --end (use RFC3339): %w", err)
				}
				cfg.End = end
			}
			return runDemo(cmd.OutOrStdout(), cfg, outPath)
		},
	}

	def := testkit.DefaultGeneratorConfig()
	cmd.Flags().Int64Var(&cfg.Seed, "seed", def.Seed, "Random seed for deterministic output")
	cmd.Flags().IntVar(&cfg.Days, "days", def.Days, "Number of days to generate")
	cmd.Flags().Float64Var(&cfg.BaseEnergy, "base-energy", def.BaseEnergy, "Average daily energy (0-100)")
	cmd.Flags().Float64Var(&cfg.MalformedRate, "malformed-rate", 0, "Share of extra malformed events")
	cmd.Flags().StringVar(&endFlag, "end", def.End.Format(time.RFC3339), "Last generated instant in RFC3339")
	cmd.Flags().StringVar(&outPath, "out", "", "Output file (.json or .xlsx); default JSON on stdout")
	return cmd
}

func runDemo(stdout io.Writer, cfg testkit.GeneratorConfig, outPath string) error {
	batch := testkit.NewPerformanceGenerator(cfg).Generate()

	switch strings.ToLower(filepath.Ext(outPath)) {
	case "":
		return testkit.WriteJSON(stdout, batch)
	case ".json":
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := testkit.WriteJSON(f, batch); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return excel.WriteWorkbook(outPath, batch)
	}
	return fmt.Errorf("unsupported --out extension %q (want .json or .xlsx)", filepath.Ext(outPath))
}

func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "Print the active pattern catalog as YAML",
		Long: `Print the pattern definitions the engine evaluates. PATTERN_CATALOG
adds custom patterns to the canonical set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg, internal.NewNopLogger())
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(map[string]interface{}{"patterns": c.Engine.Patterns()}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
