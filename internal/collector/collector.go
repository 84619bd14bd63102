// Package collector drives the fetch, normalize, persist, track loop for
// every metric type over a lookback window of calendar days.
package collector

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/wellsync/internal/domain"
)

// Provider is the read-only boundary to the fitness provider. Every call
// blocks on the network; absence of data for a key is reported as
// domain.ErrNoData rather than an empty payload.
type Provider interface {
	ListActivities(ctx context.Context, start, limit int) ([]json.RawMessage, error)
	ActivityDetail(ctx context.Context, activityID string) (json.RawMessage, error)
	ActivityTrack(ctx context.Context, activityID string) (json.RawMessage, error)
	DailyMetric(ctx context.Context, metric domain.MetricType, date string) (json.RawMessage, error)
}

// Store captures the persistence operations the collector depends on.
type Store interface {
	ActivityExists(ctx context.Context, activityID string) (bool, error)
	SaveActivity(ctx context.Context, summary domain.ActivitySummary) error
	SaveTrackPoints(ctx context.Context, activityID string, points []domain.TrackPoint) error

	SaveHeartRateDay(ctx context.Context, summary domain.HeartRateSummary, samples []domain.HeartRateSample) error
	SaveSleepDay(ctx context.Context, summary domain.SleepSummary, stages []domain.SleepStage) error
	SaveStressDay(ctx context.Context, summary domain.StressSummary, samples []domain.StressSample) error
	SaveSpO2Day(ctx context.Context, summary domain.SpO2Summary, samples []domain.SpO2Sample) error
	SaveRespirationDay(ctx context.Context, summary domain.RespirationSummary, samples []domain.RespirationSample) error
	SaveHRVDay(ctx context.Context, summary domain.HRVSummary) error

	IsSynced(ctx context.Context, source string, metric domain.MetricType, date string) (bool, error)
	MarkSync(ctx context.Context, source string, metric domain.MetricType, date string, status domain.SyncStatus, correlationID, errMessage string) error
}

// Option configures optional behaviour for the Collector.
type Option func(*Collector)

// WithLogger overrides the logger used to report progress and failures.
func WithLogger(logger *log.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		c.now = now
	}
}

// WithActivityPageSize overrides the activity list page size.
func WithActivityPageSize(size int) Option {
	return func(c *Collector) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// Collector runs one sequential ingestion pass. It holds no mutable state
// between runs; idempotence comes from the store's conflict resolution and
// the sync gate, not from the Collector.
type Collector struct {
	provider Provider
	store    Store
	logger   *log.Logger
	now      func() time.Time
	pageSize int
}

// New constructs a Collector.
func New(provider Provider, store Store, opts ...Option) *Collector {
	c := &Collector{
		provider: provider,
		store:    store,
		logger:   log.New(log.Writer(), "[collector] ", log.LstdFlags),
		now:      time.Now,
		pageSize: 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes one full ingestion pass over the lookback window: activities
// first, then each date-keyed metric type in sequence. A fresh correlation
// id tags every sync record the pass touches. Per-item failures are isolated;
// Run only returns an error when the context is cancelled.
func (c *Collector) Run(ctx context.Context, lookbackDays int) error {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	runID := uuid.NewString()
	c.logger.Printf("run %s started (lookback=%d days)", runID, lookbackDays)

	if err := c.collectActivities(ctx, lookbackDays); err != nil {
		return err
	}
	for _, metric := range dailyMetricOrder {
		if err := c.collectDaily(ctx, metric, lookbackDays, runID); err != nil {
			return err
		}
	}

	c.logger.Printf("run %s finished", runID)
	return nil
}

// dailyMetricOrder fixes the processing sequence; relative order between
// metric types carries no correctness meaning.
var dailyMetricOrder = []domain.MetricType{
	domain.MetricHeartRate,
	domain.MetricSleep,
	domain.MetricStress,
	domain.MetricSpO2,
	domain.MetricRespiration,
	domain.MetricHRV,
}

const dateLayout = "2006-01-02"

// targetDate resolves the i-th day of the window, starting at yesterday.
func (c *Collector) targetDate(i int) string {
	return c.now().AddDate(0, 0, -i).Format(dateLayout)
}
