// Package domain defines the canonical wellness records persisted by the pipeline.
package domain

import (
	"errors"
	"time"
)

// ErrNoData indicates the provider answered but the payload carries nothing
// usable for the requested day. Callers must not record sync success for it,
// so the day stays eligible for retry.
var ErrNoData = errors.New("no data recorded for requested day")

// SourceGarmin identifies the provider on sync records.
const SourceGarmin = "garmin"

// MetricType names one date-keyed metric family tracked by sync records.
type MetricType string

const (
	MetricActivity    MetricType = "activity"
	MetricHeartRate   MetricType = "heartrate"
	MetricSleep       MetricType = "sleep"
	MetricStress      MetricType = "stress"
	MetricSpO2        MetricType = "spo2"
	MetricRespiration MetricType = "respiration"
	MetricHRV         MetricType = "hrv"
)

// SyncStatus is the terminal state of one per-day ingestion attempt.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// ActivitySummary is one row per provider activity id. RawJSON keeps the
// original list-item payload for audit and replay.
type ActivitySummary struct {
	ActivityID      string
	Name            *string
	ActivityType    *string
	SportType       *string
	StartTime       *time.Time
	EndTime         *time.Time
	Duration        *float64
	Distance        *float64
	Calories        *float64
	AvgHR           *float64
	MaxHR           *float64
	AvgSpeed        *float64
	MaxSpeed        *float64
	AvgCadence      *float64
	MaxCadence      *float64
	ElevationGain   *float64
	ElevationLoss   *float64
	StartLat        *float64
	StartLng        *float64
	EndLat          *float64
	EndLng          *float64
	TrainingEffect  *float64
	AnaerobicEffect *float64
	AvgPower        *float64
	MaxPower        *float64
	VO2Max          *float64
	RawJSON         []byte
}

// TrackPoint is one GPS/physiological sample inside an activity.
type TrackPoint struct {
	Time        time.Time
	Latitude    *float64
	Longitude   *float64
	Elevation   *float64
	HeartRate   *int
	Speed       *float64
	Cadence     *int
	Power       *int
	Temperature *float64
	Distance    *float64
}

// SleepSummary is one row per calendar day; duration fields are whole minutes.
type SleepSummary struct {
	Date           string
	SleepStart     *time.Time
	SleepEnd       *time.Time
	TotalSleepMin  int
	DeepSleepMin   int
	LightSleepMin  int
	REMSleepMin    int
	AwakeMin       int
	Score          *int
	Quality        *string
	RestlessCount  *int
	AvgSpO2        *float64
	LowSpO2        *float64
	HighSpO2       *float64
	AvgRespiration *float64
	RawJSON        []byte
}

// SleepStage is one non-overlapping sleep level segment.
type SleepStage struct {
	Start time.Time
	End   *time.Time
	Level float64
}

// HeartRateSummary is one row per calendar day.
type HeartRateSummary struct {
	Date      string
	RestingHR *int
	MaxHR     *int
	MinHR     *int
	RawJSON   []byte
}

// HeartRateSample is one beats-per-minute reading.
type HeartRateSample struct {
	Time time.Time
	BPM  int
}

// StressSummary is one row per calendar day. The raw payload keeps the
// sentinel readings the sample series filters out.
type StressSummary struct {
	Date         string
	OverallLevel *int
	PeakLevel    *int
	RawJSON      []byte
}

// StressSample is one non-negative stress level reading.
type StressSample struct {
	Time  time.Time
	Level int
}

// SpO2Summary is one row per calendar day.
type SpO2Summary struct {
	Date        string
	Avg         *float64
	Lowest      *float64
	SevenDayAvg *float64
	Latest      *float64
	RawJSON     []byte
}

// SpO2Sample is one blood oxygen reading tagged with its provenance,
// either "hourly" or "continuous".
type SpO2Sample struct {
	Time   time.Time
	Value  float64
	Source string
}

// RespirationSummary is one row per calendar day.
type RespirationSummary struct {
	Date         string
	WakingAvg    *float64
	WakingHigh   *float64
	WakingLow    *float64
	SleepingAvg  *float64
	SleepingHigh *float64
	SleepingLow  *float64
	RawJSON      []byte
}

// RespirationSample is one breaths-per-minute reading.
type RespirationSample struct {
	Time  time.Time
	Value float64
}

// HRVSummary is one row per calendar day; the provider's nested baseline
// object is flattened into top-level columns. HRV carries no sample series.
type HRVSummary struct {
	Date                  string
	WeeklyAvg             *float64
	LastNightAvg          *float64
	LastNight5MinHigh     *float64
	BaselineLowUpper      *float64
	BaselineBalancedLow   *float64
	BaselineBalancedUpper *float64
	Status                *string
	RawJSON               []byte
}
