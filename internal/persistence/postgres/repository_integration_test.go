//go:build integration
// +build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/wellsync/internal/domain"
)

func TestSaveHeartRateDayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	t0 := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
	resting := 52
	first := domain.HeartRateSummary{Date: "2024-01-09", RestingHR: &resting, RawJSON: []byte(`{"restingHeartRate":52}`)}
	samples := []domain.HeartRateSample{
		{Time: t0, BPM: 61},
		{Time: t0.Add(2 * time.Minute), BPM: 63},
	}
	require.NoError(t, repo.SaveHeartRateDay(ctx, first, samples))

	// Replay the day with a corrected summary and a conflicting sample value.
	restingRevised := 54
	second := domain.HeartRateSummary{Date: "2024-01-09", RestingHR: &restingRevised, RawJSON: []byte(`{"restingHeartRate":54}`)}
	replayed := []domain.HeartRateSample{
		{Time: t0, BPM: 99},
		{Time: t0.Add(4 * time.Minute), BPM: 65},
	}
	require.NoError(t, repo.SaveHeartRateDay(ctx, second, replayed))

	var summaryCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM heart_rate_summary`).Scan(&summaryCount))
	require.Equal(t, 1, summaryCount)

	// Summary columns take the latest write.
	var storedResting int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT resting_hr FROM heart_rate_summary WHERE hr_date = $1`, "2024-01-09",
	).Scan(&storedResting))
	require.Equal(t, 54, storedResting)

	// Samples are first write wins: the conflicting instant keeps 61 and the
	// new instant lands, leaving three rows.
	var sampleCount, bpmAtT0 int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM heart_rate_sample`).Scan(&sampleCount))
	require.Equal(t, 3, sampleCount)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT bpm FROM heart_rate_sample WHERE hr_date = $1 AND sample_time = $2`, "2024-01-09", t0,
	).Scan(&bpmAtT0))
	require.Equal(t, 61, bpmAtT0)
}

func TestSyncRecordGate(t *testing.T) {
	ctx := context.Background()
	repo, _, cleanup := setupRepository(t, ctx)
	defer cleanup()

	synced, err := repo.IsSynced(ctx, domain.SourceGarmin, domain.MetricSleep, "2024-01-09")
	require.NoError(t, err)
	require.False(t, synced)

	// A failed attempt does not satisfy the gate.
	require.NoError(t, repo.MarkSync(ctx, domain.SourceGarmin, domain.MetricSleep, "2024-01-09",
		domain.SyncStatusFailed, "run-1", "fetch: boom"))
	synced, err = repo.IsSynced(ctx, domain.SourceGarmin, domain.MetricSleep, "2024-01-09")
	require.NoError(t, err)
	require.False(t, synced)

	// A later retry flips the same record to success.
	require.NoError(t, repo.MarkSync(ctx, domain.SourceGarmin, domain.MetricSleep, "2024-01-09",
		domain.SyncStatusSuccess, "run-2", ""))
	synced, err = repo.IsSynced(ctx, domain.SourceGarmin, domain.MetricSleep, "2024-01-09")
	require.NoError(t, err)
	require.True(t, synced)

	// Another metric type on the same date is an independent key.
	synced, err = repo.IsSynced(ctx, domain.SourceGarmin, domain.MetricStress, "2024-01-09")
	require.NoError(t, err)
	require.False(t, synced)
}

func TestActivityUpsertAndTrackPoints(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	exists, err := repo.ActivityExists(ctx, "12345")
	require.NoError(t, err)
	require.False(t, exists)

	name := "Morning Run"
	duration := 1800.0
	summary := domain.ActivitySummary{
		ActivityID: "12345",
		Name:       &name,
		Duration:   &duration,
		RawJSON:    []byte(`{"activityId":12345}`),
	}
	require.NoError(t, repo.SaveActivity(ctx, summary))

	exists, err = repo.ActivityExists(ctx, "12345")
	require.NoError(t, err)
	require.True(t, exists)

	renamed := "Evening Run"
	summary.Name = &renamed
	require.NoError(t, repo.SaveActivity(ctx, summary))

	var rowCount int
	var storedName string
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_summary`).Scan(&rowCount))
	require.Equal(t, 1, rowCount)
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT activity_name FROM activity_summary WHERE activity_id = $1`, "12345",
	).Scan(&storedName))
	require.Equal(t, "Evening Run", storedName)

	t0 := time.Date(2024, 1, 9, 7, 0, 0, 0, time.UTC)
	lat, lng := 59.33, 18.06
	points := []domain.TrackPoint{
		{Time: t0, Latitude: &lat, Longitude: &lng},
		{Time: t0.Add(time.Second), Latitude: &lat, Longitude: &lng},
	}
	require.NoError(t, repo.SaveTrackPoints(ctx, "12345", points))
	require.NoError(t, repo.SaveTrackPoints(ctx, "12345", points))

	var pointCount int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_track_point`).Scan(&pointCount))
	require.Equal(t, 2, pointCount)

	// Empty input is a no-op, not an error.
	require.NoError(t, repo.SaveTrackPoints(ctx, "12345", nil))
}

func TestSaveSpO2DayKeepsSampleProvenance(t *testing.T) {
	ctx := context.Background()
	repo, pool, cleanup := setupRepository(t, ctx)
	defer cleanup()

	avg := 95.0
	summary := domain.SpO2Summary{Date: "2024-01-09", Avg: &avg, RawJSON: []byte(`{"averageSpO2":95}`)}
	t0 := time.Date(2024, 1, 9, 8, 0, 0, 0, time.UTC)
	samples := []domain.SpO2Sample{
		{Time: t0, Value: 96, Source: "hourly"},
		{Time: t0, Value: 97, Source: "continuous"},
		{Time: t0.Add(5 * time.Minute), Value: 93, Source: "continuous"},
	}
	require.NoError(t, repo.SaveSpO2Day(ctx, summary, samples))

	// Both sources reporting the same instant collapse to a single row.
	var countAtT0 int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM spo2_sample WHERE spo2_date = $1 AND sample_time = $2`,
		"2024-01-09", t0,
	).Scan(&countAtT0))
	require.Equal(t, 1, countAtT0)

	var source string
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT reading_source FROM spo2_sample WHERE spo2_date = $1 AND sample_time = $2`,
		"2024-01-09", t0.Add(5*time.Minute),
	).Scan(&source))
	require.Equal(t, "continuous", source)
}

func setupRepository(t *testing.T, ctx context.Context) (*Repository, *pgxpool.Pool, func()) {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("wellness"),
		postgrescontainer.WithUsername("wellsync"),
		postgrescontainer.WithPassword("wellsync"),
	)
	require.NoError(t, err)

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	repo := NewRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	cleanup := func() {
		pool.Close()
		_ = pg.Terminate(ctx)
	}
	return repo, pool, cleanup
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
