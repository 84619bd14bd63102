package postgres

import (
	"context"
	"fmt"
)

// schema creates or updates every table the pipeline writes. Summary tables
// are unique on their natural key, detail tables on (parent key, sample
// time), and sync_record on (source, metric_type, sync_date). These are the
// constraints the upsert and insert-if-absent statements rely on.
const schema = `
CREATE TABLE IF NOT EXISTS activity_summary (
	activity_id      TEXT PRIMARY KEY,
	activity_name    TEXT,
	activity_type    TEXT,
	sport_type       TEXT,
	start_time       TIMESTAMPTZ,
	end_time         TIMESTAMPTZ,
	duration         DOUBLE PRECISION,
	distance         DOUBLE PRECISION,
	calories         DOUBLE PRECISION,
	avg_hr           DOUBLE PRECISION,
	max_hr           DOUBLE PRECISION,
	avg_speed        DOUBLE PRECISION,
	max_speed        DOUBLE PRECISION,
	avg_cadence      DOUBLE PRECISION,
	max_cadence      DOUBLE PRECISION,
	elevation_gain   DOUBLE PRECISION,
	elevation_loss   DOUBLE PRECISION,
	start_lat        DOUBLE PRECISION,
	start_lng        DOUBLE PRECISION,
	end_lat          DOUBLE PRECISION,
	end_lng          DOUBLE PRECISION,
	training_effect  DOUBLE PRECISION,
	anaerobic_effect DOUBLE PRECISION,
	avg_power        DOUBLE PRECISION,
	max_power        DOUBLE PRECISION,
	vo2max           DOUBLE PRECISION,
	raw_json         JSONB,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activity_track_point (
	activity_id TEXT NOT NULL,
	point_time  TIMESTAMPTZ NOT NULL,
	latitude    DOUBLE PRECISION,
	longitude   DOUBLE PRECISION,
	elevation   DOUBLE PRECISION,
	heart_rate  INTEGER,
	speed       DOUBLE PRECISION,
	cadence     INTEGER,
	power       INTEGER,
	temperature DOUBLE PRECISION,
	distance    DOUBLE PRECISION,
	PRIMARY KEY (activity_id, point_time)
);

CREATE TABLE IF NOT EXISTS sleep_summary (
	sleep_date      DATE PRIMARY KEY,
	sleep_start     TIMESTAMPTZ,
	sleep_end       TIMESTAMPTZ,
	total_sleep_min INTEGER,
	deep_sleep_min  INTEGER,
	light_sleep_min INTEGER,
	rem_sleep_min   INTEGER,
	awake_min       INTEGER,
	sleep_score     INTEGER,
	sleep_quality   TEXT,
	restless_count  INTEGER,
	avg_spo2        DOUBLE PRECISION,
	low_spo2        DOUBLE PRECISION,
	high_spo2       DOUBLE PRECISION,
	avg_respiration DOUBLE PRECISION,
	raw_json        JSONB,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sleep_stage (
	sleep_date     DATE NOT NULL,
	stage_start    TIMESTAMPTZ NOT NULL,
	stage_end      TIMESTAMPTZ,
	activity_level DOUBLE PRECISION,
	PRIMARY KEY (sleep_date, stage_start)
);

CREATE TABLE IF NOT EXISTS heart_rate_summary (
	hr_date    DATE PRIMARY KEY,
	resting_hr INTEGER,
	max_hr     INTEGER,
	min_hr     INTEGER,
	raw_json   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS heart_rate_sample (
	hr_date     DATE NOT NULL,
	sample_time TIMESTAMPTZ NOT NULL,
	bpm         INTEGER NOT NULL,
	PRIMARY KEY (hr_date, sample_time)
);

CREATE TABLE IF NOT EXISTS stress_summary (
	stress_date   DATE PRIMARY KEY,
	overall_level INTEGER,
	peak_level    INTEGER,
	raw_json      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS stress_sample (
	stress_date  DATE NOT NULL,
	sample_time  TIMESTAMPTZ NOT NULL,
	stress_level INTEGER NOT NULL,
	PRIMARY KEY (stress_date, sample_time)
);

CREATE TABLE IF NOT EXISTS spo2_summary (
	spo2_date     DATE PRIMARY KEY,
	avg_spo2      DOUBLE PRECISION,
	lowest_spo2   DOUBLE PRECISION,
	seven_day_avg DOUBLE PRECISION,
	latest_spo2   DOUBLE PRECISION,
	raw_json      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS spo2_sample (
	spo2_date      DATE NOT NULL,
	sample_time    TIMESTAMPTZ NOT NULL,
	spo2_value     DOUBLE PRECISION NOT NULL,
	reading_source TEXT NOT NULL,
	PRIMARY KEY (spo2_date, sample_time)
);

CREATE TABLE IF NOT EXISTS respiration_summary (
	resp_date     DATE PRIMARY KEY,
	waking_avg    DOUBLE PRECISION,
	waking_high   DOUBLE PRECISION,
	waking_low    DOUBLE PRECISION,
	sleeping_avg  DOUBLE PRECISION,
	sleeping_high DOUBLE PRECISION,
	sleeping_low  DOUBLE PRECISION,
	raw_json      JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS respiration_sample (
	resp_date   DATE NOT NULL,
	sample_time TIMESTAMPTZ NOT NULL,
	resp_value  DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (resp_date, sample_time)
);

CREATE TABLE IF NOT EXISTS hrv_summary (
	hrv_date               DATE PRIMARY KEY,
	weekly_avg             DOUBLE PRECISION,
	last_night_avg         DOUBLE PRECISION,
	last_night_5min_high   DOUBLE PRECISION,
	baseline_low_upper     DOUBLE PRECISION,
	baseline_balanced_low  DOUBLE PRECISION,
	baseline_balanced_upper DOUBLE PRECISION,
	hrv_status             TEXT,
	raw_json               JSONB,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sync_record (
	source         TEXT NOT NULL,
	metric_type    TEXT NOT NULL,
	sync_date      DATE NOT NULL,
	status         TEXT NOT NULL,
	correlation_id TEXT,
	error_message  TEXT,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (source, metric_type, sync_date)
);

CREATE INDEX IF NOT EXISTS idx_activity_summary_start ON activity_summary(start_time DESC);
CREATE INDEX IF NOT EXISTS idx_sync_record_status ON sync_record(status);
`

// Migrate applies the schema. Every statement is idempotent, so Migrate is
// safe to run on each startup.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
