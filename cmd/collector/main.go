// Command collector synchronizes wellness metrics from the configured
// provider account into Postgres, either as a one-shot pass or as a
// long-running daily schedule.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"example.com/wellsync/internal/collector"
	"example.com/wellsync/internal/config"
	"example.com/wellsync/internal/persistence/postgres"
	"example.com/wellsync/internal/provider"
)

func main() {
	// Optional .env for local dev; real deployments set the environment.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:           "collector",
		Short:         "Sync wellness metrics from a fitness provider into Postgres",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), onceCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("collector: %v", err)
	}
}

// runCmd backfills on startup, then repeats a one-day pass at the configured
// daily schedule time until interrupted.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Backfill, then collect daily on the configured schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			repo, c, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: metricsMux()}
			go func() {
				log.Printf("metrics listening on %s", cfg.MetricsAddress)
				if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Printf("metrics server error: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer shutdownCancel()
				_ = metricsSrv.Shutdown(shutdownCtx)
			}()

			lookback := cfg.InitialLookback(time.Now())
			log.Printf("initial backfill over %d days", lookback)
			if err := c.Run(ctx, lookback); err != nil {
				return err
			}

			for {
				next, err := nextScheduledRun(time.Now(), cfg.DailySchedule)
				if err != nil {
					return err
				}
				log.Printf("next pass at %s", next.Format(time.RFC3339))

				timer := time.NewTimer(time.Until(next))
				select {
				case <-ctx.Done():
					timer.Stop()
					log.Println("shutdown requested")
					return nil
				case <-timer.C:
				}

				if err := c.Run(ctx, 1); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					log.Printf("scheduled pass failed: %v", err)
				}
			}
		},
	}
}

// onceCmd runs a single pass and exits; --days overrides the window.
func onceCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single collection pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			repo, c, err := buildPipeline(ctx, cfg)
			if err != nil {
				return err
			}
			defer repo.Close()

			if days <= 0 {
				days = cfg.InitialLookback(time.Now())
			}
			return c.Run(ctx, days)
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "lookback window in days (default: configured initial lookback)")
	return cmd
}

// migrateCmd applies the schema and exits.
func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			ctx := context.Background()

			pool, err := pgxpool.New(ctx, cfg.PostgresURL)
			if err != nil {
				return fmt.Errorf("connect to postgres: %w", err)
			}
			defer pool.Close()

			repo := postgres.NewRepository(pool)
			if err := repo.Migrate(ctx); err != nil {
				return err
			}
			log.Println("schema applied")
			return nil
		},
	}
}

// buildPipeline wires config into the concrete provider, store, and
// collector, migrating the schema and establishing the provider session.
func buildPipeline(ctx context.Context, cfg config.Config) (*postgres.Repository, *collector.Collector, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	repo := postgres.NewRepository(pool)
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}

	client := provider.NewClient(cfg)
	if err := client.EnsureLogin(ctx); err != nil {
		repo.Close()
		return nil, nil, err
	}

	c := collector.New(client, repo, collector.WithActivityPageSize(cfg.ActivityPageSize))
	return repo, c, nil
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// nextScheduledRun resolves the next HH:MM occurrence strictly after now.
func nextScheduledRun(now time.Time, schedule string) (time.Time, error) {
	at, err := time.Parse("15:04", schedule)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid DAILY_SCHEDULE %q: %w", schedule, err)
	}
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next, nil
}
