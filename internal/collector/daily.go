package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"example.com/wellsync/internal/domain"
	"example.com/wellsync/internal/normalize"
	"example.com/wellsync/internal/observability"
)

// collectDaily ingests one metric type across the lookback window, yesterday
// backwards. Each day is independent: already-synced days are skipped
// without a fetch, days with no data stay unmarked so a later run retries
// them, and any fetch, parse, or persist failure marks the day failed and
// moves on.
func (c *Collector) collectDaily(ctx context.Context, metric domain.MetricType, lookbackDays int, runID string) error {
	var succeeded int
	for i := 1; i <= lookbackDays; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		date := c.targetDate(i)

		synced, err := c.store.IsSynced(ctx, domain.SourceGarmin, metric, date)
		if err != nil {
			c.logger.Printf("%s %s: sync gate check failed: %v", metric, date, err)
			observability.RecordDay(metric, observability.OutcomeFailed)
			continue
		}
		if synced {
			observability.RecordDay(metric, observability.OutcomeSkipped)
			succeeded++
			continue
		}

		switch err := c.ingestDay(ctx, metric, date); {
		case err == nil:
			if markErr := c.store.MarkSync(ctx, domain.SourceGarmin, metric, date, domain.SyncStatusSuccess, runID, ""); markErr != nil {
				c.logger.Printf("%s %s: mark success failed: %v", metric, date, markErr)
			}
			observability.RecordDay(metric, observability.OutcomeSuccess)
			succeeded++
		case errors.Is(err, domain.ErrNoData):
			// Leave the sync record unmarked; the day is retried next run.
			c.logger.Printf("%s %s: no data", metric, date)
			observability.RecordDay(metric, observability.OutcomeEmpty)
		case errors.Is(err, context.Canceled):
			return err
		default:
			c.logger.Printf("%s %s: %v", metric, date, err)
			if markErr := c.store.MarkSync(ctx, domain.SourceGarmin, metric, date, domain.SyncStatusFailed, runID, err.Error()); markErr != nil {
				c.logger.Printf("%s %s: mark failure failed: %v", metric, date, markErr)
			}
			observability.RecordDay(metric, observability.OutcomeFailed)
		}
	}
	c.logger.Printf("%s: %d/%d days synced", metric, succeeded, lookbackDays)
	return nil
}

// ingestDay runs fetch, normalize, persist for a single (metric, date) key.
func (c *Collector) ingestDay(ctx context.Context, metric domain.MetricType, date string) error {
	raw, err := c.provider.DailyMetric(ctx, metric, date)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return domain.ErrNoData
		}
		return fmt.Errorf("fetch: %w", err)
	}
	return c.persistDay(ctx, metric, date, raw)
}

func (c *Collector) persistDay(ctx context.Context, metric domain.MetricType, date string, raw json.RawMessage) error {
	switch metric {
	case domain.MetricHeartRate:
		summary, samples, err := normalize.HeartRateDay(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveHeartRateDay(ctx, summary, samples); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		observability.RecordSamples(metric, len(samples))
	case domain.MetricSleep:
		summary, stages, err := normalize.SleepDay(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveSleepDay(ctx, summary, stages); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		observability.RecordSamples(metric, len(stages))
	case domain.MetricStress:
		summary, samples, err := normalize.StressDay(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveStressDay(ctx, summary, samples); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		observability.RecordSamples(metric, len(samples))
	case domain.MetricSpO2:
		summary, samples, err := normalize.SpO2Day(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveSpO2Day(ctx, summary, samples); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		observability.RecordSamples(metric, len(samples))
	case domain.MetricRespiration:
		summary, samples, err := normalize.RespirationDay(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveRespirationDay(ctx, summary, samples); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
		observability.RecordSamples(metric, len(samples))
	case domain.MetricHRV:
		summary, err := normalize.HRVDay(date, raw)
		if err != nil {
			return err
		}
		if err := c.store.SaveHRVDay(ctx, summary); err != nil {
			return fmt.Errorf("persist: %w", err)
		}
	default:
		return fmt.Errorf("unknown metric type %q", metric)
	}
	return nil
}
