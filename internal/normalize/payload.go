// Package normalize reshapes raw provider payloads into canonical records.
// It performs no I/O; every parser takes payload bytes and returns domain
// types, so ingestion logic stays testable without a provider or a store.
package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout matches the provider's GMT timestamp strings. time.Parse
// accepts a trailing fractional second even when the layout omits one, so a
// single layout covers both "2024-01-01T08:00:00" and "2024-01-01T08:00:00.0".
const timestampLayout = "2006-01-02T15:04:05"

// ParseGMTTimestamp parses a provider GMT timestamp string, with or without
// sub-second precision, into a UTC instant.
func ParseGMTTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts.UTC(), nil
}

// timeFromMillis converts an epoch-millisecond value into a UTC instant.
func timeFromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func timeFromMillisPtr(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	ts := timeFromMillis(*ms)
	return &ts
}

// valuePair is one [timestamp_ms, value] element of the provider's parallel
// time-series arrays. Either slot may be null.
type valuePair []*float64

func (p valuePair) at(i int) *float64 {
	if i >= len(p) {
		return nil
	}
	return p[i]
}

// sampleAt resolves the pair into (instant, value) or reports the pair
// unusable. Pairs missing either slot are dropped by every series parser.
func (p valuePair) sampleAt() (time.Time, float64, bool) {
	ts, val := p.at(0), p.at(1)
	if ts == nil || val == nil {
		return time.Time{}, 0, false
	}
	return timeFromMillis(int64(*ts)), *val, true
}

// flexTime accepts the two timestamp encodings the provider mixes in the
// same payload family: an epoch-millisecond number or a GMT timestamp string.
type flexTime struct {
	Time  time.Time
	Valid bool
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		ts, err := ParseGMTTimestamp(s)
		if err != nil {
			return err
		}
		f.Time, f.Valid = ts, true
		return nil
	}
	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	f.Time, f.Valid = timeFromMillis(int64(ms)), true
	return nil
}

// coerceCount converts a metric that is logically a whole number (heart rate,
// cadence, power) from the provider's float encoding. Zero means "no reading"
// for these metrics and maps to nil.
func coerceCount(v *float64) *int {
	if v == nil || *v == 0 {
		return nil
	}
	n := int(*v)
	return &n
}

// secondsToMinutes converts an integer-seconds duration field to whole
// minutes, treating a missing value as zero.
func secondsToMinutes(seconds *int) int {
	if seconds == nil {
		return 0
	}
	return *seconds / 60
}
