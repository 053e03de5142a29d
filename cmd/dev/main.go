package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"perfpulse/adapters/memory"
	"perfpulse/adapters/postgres"
	"perfpulse/adapters/report"
	"perfpulse/internal"
	"perfpulse/internal/config"
	"perfpulse/internal/container"
	"perfpulse/internal/session"
	"perfpulse/internal/testkit"
)

const defaultDevDatabase = "perfpulse-dev.db"

func main() {
	godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "perfpulse-dev",
		Short: "perfpulse development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newSmokeTestCmd(),
		newDeterminismTestCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newSeedCmd() *cobra.Command {
	var dbPath string
	var gen testkit.GeneratorConfig

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a SQLite database filled with synthetic activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return seed(cmd.Context(), dbPath, gen)
		},
	}

	def := testkit.DefaultGeneratorConfig()
	gen.End = time.Now().UTC()
	cmd.Flags().StringVar(&dbPath, "db", defaultDevDatabase, "SQLite database file")
	cmd.Flags().Int64Var(&gen.Seed, "seed", def.Seed, "Random seed for deterministic data")
	cmd.Flags().IntVar(&gen.Days, "days", def.Days, "Days of history to generate")
	cmd.Flags().Float64Var(&gen.MalformedRate, "malformed-rate", 0.02, "Share of extra malformed events")
	return cmd
}

func seed(ctx context.Context, dbPath string, gen testkit.GeneratorConfig) error {
	db, err := container.OpenDatabase(ctx, config.DatabaseConfig{URL: dbPath, Driver: "sqlite3"})
	if err != nil {
		return err
	}
	defer db.Close()

	batch := testkit.NewPerformanceGenerator(gen).Generate()
	if err := postgres.NewActivityRepository(db).Save(ctx, batch); err != nil {
		return err
	}

	fmt.Printf("Seeded %s: %d events, %d tasks, %d energy estimates\n", dbPath, len(batch.Events), len(batch.Tasks), len(batch.Energy))
	fmt.Printf("Run with DATABASE_DRIVER=sqlite3 DATABASE_URL=%s\n", dbPath)
	return nil
}

// devContainer builds a container over synthetic data with a fixed clock
func devContainer(days int) (*container.Container, time.Time, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, time.Time{}, err
	}
	cfg.Analysis.WindowDays = days

	c, err := container.New(cfg, internal.NewNopLogger())
	if err != nil {
		return nil, time.Time{}, err
	}

	gen := testkit.DefaultGeneratorConfig()
	gen.Days = days
	c.Source = memory.NewSource(testkit.NewPerformanceGenerator(gen).Generate())
	c.SourceName = container.SourceSynthetic
	return c, gen.End, c.InitService(nil)
}

func newSmokeTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "smoke",
		Short: "Run one analysis over synthetic data and check it produced findings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, now, err := devContainer(30)
			if err != nil {
				return err
			}
			defer c.Close()

			result, err := c.Service.Run(cmd.Context(), now)
			if err != nil {
				return err
			}
			if result.Normalization.EventsAccepted == 0 {
				return fmt.Errorf("smoke test failed: no events accepted")
			}
			if len(result.Correlations) == 0 {
				return fmt.Errorf("smoke test failed: no correlations found")
			}
			fmt.Printf("✓ %d events, %d correlations, %d patterns, %d segments\n",
				result.Normalization.EventsAccepted, len(result.Correlations), len(result.Patterns), len(result.Segments))
			return nil
		},
	}
}

func newDeterminismTestCmd() *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Check that repeated runs render identical reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, now, err := devContainer(30)
			if err != nil {
				return err
			}
			defer c.Close()

			batch, err := c.Service.Fetch(cmd.Context(), c.Service.Range(now))
			if err != nil {
				return err
			}

			var first []byte
			for i := 0; i < runs; i++ {
				result := c.Engine.Analyze(session.WithID("determinism", now), batch)
				md, err := report.Markdown(result)
				if err != nil {
					return err
				}
				if first == nil {
					first = md
					continue
				}
				if !bytes.Equal(first, md) {
					return fmt.Errorf("determinism check failed: run %d differs from run 1", i+1)
				}
			}
			fmt.Printf("✓ %d runs rendered identical reports\n", runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&runs, "runs", 5, "Number of runs to compare")
	return cmd
}

func newServeCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the API and report viewer over the seeded SQLite database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.Database = config.DatabaseConfig{URL: dbPath, Driver: "sqlite3"}
			cfg.Server.GinMode = "debug"

			c, err := container.New(cfg, nil)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.Serve(ctx, container.ServeOptions{API: true, UI: true})
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDevDatabase, "SQLite database file")
	return cmd
}
