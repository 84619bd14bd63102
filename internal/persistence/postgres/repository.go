// Package postgres provides Postgres-backed persistence for wellness records
// and the per-day sync gate.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/wellsync/internal/domain"
)

// detailBatchSize bounds how many detail inserts are pipelined per batch.
const detailBatchSize = 500

// Repository persists canonical records. Summary writes upsert a designated
// mutable column subset; detail writes are insert-if-absent, so a sample
// instant is immutable once recorded. Each exported method runs in a single
// transaction: commit on success, rollback and surface the failure otherwise.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Close releases the underlying pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// ActivityExists reports whether a summary row exists for the activity id.
// It is the dedup gate for activity ingestion; activities are id-addressed,
// so the date-keyed sync_record gate does not apply to them.
func (r *Repository) ActivityExists(ctx context.Context, activityID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM activity_summary WHERE activity_id = $1)`,
		activityID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check activity %s: %w", activityID, err)
	}
	return exists, nil
}

// SaveActivity upserts one activity summary. On conflict the fields the
// provider recomputes (name, duration, distance, calories, heart rate,
// speed) are refreshed along with the raw payload; key and immutable columns
// are left untouched.
func (r *Repository) SaveActivity(ctx context.Context, summary domain.ActivitySummary) error {
	const stmt = `INSERT INTO activity_summary
		(activity_id, activity_name, activity_type, sport_type, start_time, end_time,
		 duration, distance, calories, avg_hr, max_hr, avg_speed, max_speed,
		 avg_cadence, max_cadence, elevation_gain, elevation_loss,
		 start_lat, start_lng, end_lat, end_lng,
		 training_effect, anaerobic_effect, avg_power, max_power, vo2max, raw_json)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27)
	ON CONFLICT (activity_id) DO UPDATE SET
		activity_name = EXCLUDED.activity_name,
		duration  = EXCLUDED.duration,
		distance  = EXCLUDED.distance,
		calories  = EXCLUDED.calories,
		avg_hr    = EXCLUDED.avg_hr,
		max_hr    = EXCLUDED.max_hr,
		avg_speed = EXCLUDED.avg_speed,
		max_speed = EXCLUDED.max_speed,
		raw_json  = EXCLUDED.raw_json`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, stmt,
			summary.ActivityID, summary.Name, summary.ActivityType, summary.SportType,
			summary.StartTime, summary.EndTime,
			summary.Duration, summary.Distance, summary.Calories,
			summary.AvgHR, summary.MaxHR, summary.AvgSpeed, summary.MaxSpeed,
			summary.AvgCadence, summary.MaxCadence,
			summary.ElevationGain, summary.ElevationLoss,
			summary.StartLat, summary.StartLng, summary.EndLat, summary.EndLng,
			summary.TrainingEffect, summary.AnaerobicEffect,
			summary.AvgPower, summary.MaxPower, summary.VO2Max,
			rawJSON(summary.RawJSON),
		)
		return err
	})
}

// SaveTrackPoints bulk-inserts GPS samples for an activity, first write wins
// per (activity id, point time). Empty input is a no-op.
func (r *Repository) SaveTrackPoints(ctx context.Context, activityID string, points []domain.TrackPoint) error {
	if len(points) == 0 {
		return nil
	}
	const stmt = `INSERT INTO activity_track_point
		(activity_id, point_time, latitude, longitude, elevation,
		 heart_rate, speed, cadence, power, temperature, distance)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (activity_id, point_time) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		return execBatched(ctx, tx, len(points), func(b *pgx.Batch, i int) {
			p := points[i]
			b.Queue(stmt, activityID, p.Time, p.Latitude, p.Longitude, p.Elevation,
				p.HeartRate, p.Speed, p.Cadence, p.Power, p.Temperature, p.Distance)
		})
	})
}

// SaveHeartRateDay persists a day's heart rate summary and samples in one
// transaction, so a crash can never leave the summary without its series.
func (r *Repository) SaveHeartRateDay(ctx context.Context, summary domain.HeartRateSummary, samples []domain.HeartRateSample) error {
	const upsert = `INSERT INTO heart_rate_summary (hr_date, resting_hr, max_hr, min_hr, raw_json)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (hr_date) DO UPDATE SET
		resting_hr = EXCLUDED.resting_hr,
		max_hr     = EXCLUDED.max_hr,
		min_hr     = EXCLUDED.min_hr,
		raw_json   = EXCLUDED.raw_json`
	const insert = `INSERT INTO heart_rate_sample (hr_date, sample_time, bpm)
	VALUES ($1,$2,$3)
	ON CONFLICT (hr_date, sample_time) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			summary.Date, summary.RestingHR, summary.MaxHR, summary.MinHR, rawJSON(summary.RawJSON),
		); err != nil {
			return err
		}
		return execBatched(ctx, tx, len(samples), func(b *pgx.Batch, i int) {
			b.Queue(insert, summary.Date, samples[i].Time, samples[i].BPM)
		})
	})
}

// SaveSleepDay persists a day's sleep summary and stage segments in one
// transaction.
func (r *Repository) SaveSleepDay(ctx context.Context, summary domain.SleepSummary, stages []domain.SleepStage) error {
	const upsert = `INSERT INTO sleep_summary
		(sleep_date, sleep_start, sleep_end, total_sleep_min, deep_sleep_min,
		 light_sleep_min, rem_sleep_min, awake_min, sleep_score, sleep_quality,
		 restless_count, avg_spo2, low_spo2, high_spo2, avg_respiration, raw_json)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	ON CONFLICT (sleep_date) DO UPDATE SET
		sleep_start     = EXCLUDED.sleep_start,
		sleep_end       = EXCLUDED.sleep_end,
		total_sleep_min = EXCLUDED.total_sleep_min,
		deep_sleep_min  = EXCLUDED.deep_sleep_min,
		light_sleep_min = EXCLUDED.light_sleep_min,
		rem_sleep_min   = EXCLUDED.rem_sleep_min,
		awake_min       = EXCLUDED.awake_min,
		sleep_score     = EXCLUDED.sleep_score,
		raw_json        = EXCLUDED.raw_json`
	const insert = `INSERT INTO sleep_stage (sleep_date, stage_start, stage_end, activity_level)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (sleep_date, stage_start) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			summary.Date, summary.SleepStart, summary.SleepEnd,
			summary.TotalSleepMin, summary.DeepSleepMin, summary.LightSleepMin,
			summary.REMSleepMin, summary.AwakeMin,
			summary.Score, summary.Quality, summary.RestlessCount,
			summary.AvgSpO2, summary.LowSpO2, summary.HighSpO2, summary.AvgRespiration,
			rawJSON(summary.RawJSON),
		); err != nil {
			return err
		}
		return execBatched(ctx, tx, len(stages), func(b *pgx.Batch, i int) {
			b.Queue(insert, summary.Date, stages[i].Start, stages[i].End, stages[i].Level)
		})
	})
}

// SaveStressDay persists a day's stress summary and filtered samples in one
// transaction.
func (r *Repository) SaveStressDay(ctx context.Context, summary domain.StressSummary, samples []domain.StressSample) error {
	const upsert = `INSERT INTO stress_summary (stress_date, overall_level, peak_level, raw_json)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (stress_date) DO UPDATE SET
		overall_level = EXCLUDED.overall_level,
		raw_json      = EXCLUDED.raw_json`
	const insert = `INSERT INTO stress_sample (stress_date, sample_time, stress_level)
	VALUES ($1,$2,$3)
	ON CONFLICT (stress_date, sample_time) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			summary.Date, summary.OverallLevel, summary.PeakLevel, rawJSON(summary.RawJSON),
		); err != nil {
			return err
		}
		return execBatched(ctx, tx, len(samples), func(b *pgx.Batch, i int) {
			b.Queue(insert, summary.Date, samples[i].Time, samples[i].Level)
		})
	})
}

// SaveSpO2Day persists a day's blood oxygen summary and merged samples in
// one transaction.
func (r *Repository) SaveSpO2Day(ctx context.Context, summary domain.SpO2Summary, samples []domain.SpO2Sample) error {
	const upsert = `INSERT INTO spo2_summary (spo2_date, avg_spo2, lowest_spo2, seven_day_avg, latest_spo2, raw_json)
	VALUES ($1,$2,$3,$4,$5,$6)
	ON CONFLICT (spo2_date) DO UPDATE SET
		avg_spo2    = EXCLUDED.avg_spo2,
		lowest_spo2 = EXCLUDED.lowest_spo2,
		raw_json    = EXCLUDED.raw_json`
	const insert = `INSERT INTO spo2_sample (spo2_date, sample_time, spo2_value, reading_source)
	VALUES ($1,$2,$3,$4)
	ON CONFLICT (spo2_date, sample_time) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			summary.Date, summary.Avg, summary.Lowest, summary.SevenDayAvg, summary.Latest,
			rawJSON(summary.RawJSON),
		); err != nil {
			return err
		}
		return execBatched(ctx, tx, len(samples), func(b *pgx.Batch, i int) {
			b.Queue(insert, summary.Date, samples[i].Time, samples[i].Value, samples[i].Source)
		})
	})
}

// SaveRespirationDay persists a day's respiration summary and samples in one
// transaction.
func (r *Repository) SaveRespirationDay(ctx context.Context, summary domain.RespirationSummary, samples []domain.RespirationSample) error {
	const upsert = `INSERT INTO respiration_summary
		(resp_date, waking_avg, waking_high, waking_low, sleeping_avg, sleeping_high, sleeping_low, raw_json)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (resp_date) DO UPDATE SET
		waking_avg   = EXCLUDED.waking_avg,
		sleeping_avg = EXCLUDED.sleeping_avg,
		raw_json     = EXCLUDED.raw_json`
	const insert = `INSERT INTO respiration_sample (resp_date, sample_time, resp_value)
	VALUES ($1,$2,$3)
	ON CONFLICT (resp_date, sample_time) DO NOTHING`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsert,
			summary.Date, summary.WakingAvg, summary.WakingHigh, summary.WakingLow,
			summary.SleepingAvg, summary.SleepingHigh, summary.SleepingLow,
			rawJSON(summary.RawJSON),
		); err != nil {
			return err
		}
		return execBatched(ctx, tx, len(samples), func(b *pgx.Batch, i int) {
			b.Queue(insert, summary.Date, samples[i].Time, samples[i].Value)
		})
	})
}

// SaveHRVDay upserts a day's HRV summary. HRV carries no sample series.
func (r *Repository) SaveHRVDay(ctx context.Context, summary domain.HRVSummary) error {
	const upsert = `INSERT INTO hrv_summary
		(hrv_date, weekly_avg, last_night_avg, last_night_5min_high,
		 baseline_low_upper, baseline_balanced_low, baseline_balanced_upper, hrv_status, raw_json)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	ON CONFLICT (hrv_date) DO UPDATE SET
		weekly_avg     = EXCLUDED.weekly_avg,
		last_night_avg = EXCLUDED.last_night_avg,
		raw_json       = EXCLUDED.raw_json`

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, upsert,
			summary.Date, summary.WeeklyAvg, summary.LastNightAvg, summary.LastNight5MinHigh,
			summary.BaselineLowUpper, summary.BaselineBalancedLow, summary.BaselineBalancedUpper,
			summary.Status, rawJSON(summary.RawJSON),
		)
		return err
	})
}

// IsSynced reports whether a sync record exists for the key with status
// success. It is the sole gate consulted before fetching a date-keyed metric.
func (r *Repository) IsSynced(ctx context.Context, source string, metric domain.MetricType, date string) (bool, error) {
	var synced bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM sync_record
			WHERE source = $1 AND metric_type = $2 AND sync_date = $3 AND status = $4
		)`,
		source, string(metric), date, string(domain.SyncStatusSuccess),
	).Scan(&synced)
	if err != nil {
		return false, fmt.Errorf("check sync record (%s, %s, %s): %w", source, metric, date, err)
	}
	return synced, nil
}

// MarkSync upserts the sync record for (source, metric, date), replacing
// status, correlation id, and error message on conflict. A failed record may
// later flip to success on a retry; success never reverts.
func (r *Repository) MarkSync(ctx context.Context, source string, metric domain.MetricType, date string, status domain.SyncStatus, correlationID, errMessage string) error {
	const stmt = `INSERT INTO sync_record (source, metric_type, sync_date, status, correlation_id, error_message, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,NOW())
	ON CONFLICT (source, metric_type, sync_date) DO UPDATE SET
		status         = EXCLUDED.status,
		correlation_id = EXCLUDED.correlation_id,
		error_message  = EXCLUDED.error_message,
		updated_at     = NOW()`

	_, err := r.pool.Exec(ctx, stmt,
		source, string(metric), date, string(status),
		nullIfEmpty(correlationID), nullIfEmpty(errMessage),
	)
	if err != nil {
		return fmt.Errorf("mark sync (%s, %s, %s): %w", source, metric, date, err)
	}
	return nil
}

// inTx runs fn inside a transaction with rollback on failure.
func (r *Repository) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	err = tx.Commit(ctx)
	return err
}

// execBatched queues n statements in pipelined batches of detailBatchSize
// and drains every result, surfacing the first failure.
func execBatched(ctx context.Context, tx pgx.Tx, n int, queue func(b *pgx.Batch, i int)) error {
	for start := 0; start < n; start += detailBatchSize {
		end := start + detailBatchSize
		if end > n {
			end = n
		}
		batch := &pgx.Batch{}
		for i := start; i < end; i++ {
			queue(batch, i)
		}
		results := tx.SendBatch(ctx, batch)
		var execErr error
		for i := start; i < end; i++ {
			if _, err := results.Exec(); err != nil && execErr == nil {
				execErr = err
			}
		}
		if closeErr := results.Close(); execErr == nil {
			execErr = closeErr
		}
		if execErr != nil {
			return execErr
		}
	}
	return nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// rawJSON guards against inserting zero-length bytes into a JSONB column.
func rawJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
