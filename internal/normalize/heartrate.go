package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

type heartRatePayload struct {
	RestingHeartRate *int        `json:"restingHeartRate"`
	MaxHeartRate     *int        `json:"maxHeartRate"`
	MinHeartRate     *int        `json:"minHeartRate"`
	HeartRateValues  []valuePair `json:"heartRateValues"`
}

// HeartRateDay parses a daily heart rate payload into a summary plus its
// sample series. Pairs missing a timestamp or a reading are dropped.
func HeartRateDay(date string, raw json.RawMessage) (domain.HeartRateSummary, []domain.HeartRateSample, error) {
	var payload heartRatePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.HeartRateSummary{}, nil, fmt.Errorf("decode heart rate payload: %w", err)
	}

	summary := domain.HeartRateSummary{
		Date:      date,
		RestingHR: payload.RestingHeartRate,
		MaxHR:     payload.MaxHeartRate,
		MinHR:     payload.MinHeartRate,
		RawJSON:   raw,
	}

	samples := make([]domain.HeartRateSample, 0, len(payload.HeartRateValues))
	for _, pair := range payload.HeartRateValues {
		ts, val, ok := pair.sampleAt()
		if !ok {
			continue
		}
		samples = append(samples, domain.HeartRateSample{Time: ts, BPM: int(val)})
	}
	return summary, samples, nil
}
