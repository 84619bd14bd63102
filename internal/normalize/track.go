package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"example.com/wellsync/internal/domain"
)

// TrackPayload is the activity details endpoint's self-describing sample set:
// a descriptor list naming each metric key and its position inside the flat
// metrics tuples. The layout is per-activity and must never be assumed static
// across calls.
type TrackPayload struct {
	MetricDescriptors     []MetricDescriptor `json:"metricDescriptors"`
	ActivityDetailMetrics []metricsTuple     `json:"activityDetailMetrics"`
}

// MetricDescriptor maps one metric key to its tuple index.
type MetricDescriptor struct {
	Key          string `json:"key"`
	MetricsIndex *int   `json:"metricsIndex"`
}

type metricsTuple struct {
	Metrics []*float64 `json:"metrics"`
}

// ParseTrackPayload decodes the raw details payload.
func ParseTrackPayload(raw json.RawMessage) (TrackPayload, error) {
	var payload TrackPayload
	if len(raw) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return TrackPayload{}, fmt.Errorf("decode track payload: %w", err)
	}
	return payload, nil
}

// descriptorIndex resolves metric keys to tuple positions.
type descriptorIndex map[string]int

func newDescriptorIndex(descriptors []MetricDescriptor) descriptorIndex {
	idx := make(descriptorIndex, len(descriptors))
	for _, d := range descriptors {
		if d.Key == "" || d.MetricsIndex == nil {
			continue
		}
		idx[d.Key] = *d.MetricsIndex
	}
	return idx
}

func (idx descriptorIndex) value(tuple []*float64, key string) *float64 {
	i, ok := idx[key]
	if !ok || i < 0 || i >= len(tuple) {
		return nil
	}
	return tuple[i]
}

// TrackPoints derives canonical samples from the payload. Sample time comes
// from the absolute directTimestamp millisecond field when set, otherwise
// from sumElapsedDuration seconds added to the activity's GMT start; a tuple
// with neither time source is dropped.
func TrackPoints(payload TrackPayload, activityStart *time.Time) []domain.TrackPoint {
	idx := newDescriptorIndex(payload.MetricDescriptors)

	points := make([]domain.TrackPoint, 0, len(payload.ActivityDetailMetrics))
	for _, tuple := range payload.ActivityDetailMetrics {
		if len(tuple.Metrics) == 0 {
			continue
		}

		var pointTime time.Time
		if ts := idx.value(tuple.Metrics, "directTimestamp"); ts != nil && *ts != 0 {
			pointTime = timeFromMillis(int64(*ts))
		} else if elapsed := idx.value(tuple.Metrics, "sumElapsedDuration"); elapsed != nil && activityStart != nil {
			pointTime = activityStart.Add(time.Duration(*elapsed * float64(time.Second)))
		} else {
			continue
		}

		points = append(points, domain.TrackPoint{
			Time:        pointTime,
			Latitude:    idx.value(tuple.Metrics, "directLatitude"),
			Longitude:   idx.value(tuple.Metrics, "directLongitude"),
			Elevation:   idx.value(tuple.Metrics, "directElevation"),
			HeartRate:   coerceCount(idx.value(tuple.Metrics, "directHeartRate")),
			Speed:       idx.value(tuple.Metrics, "directSpeed"),
			Cadence:     coerceCount(idx.value(tuple.Metrics, "directRunCadence")),
			Power:       coerceCount(idx.value(tuple.Metrics, "directPower")),
			Temperature: idx.value(tuple.Metrics, "directAirTemperature"),
			Distance:    idx.value(tuple.Metrics, "sumDistance"),
		})
	}
	return points
}
