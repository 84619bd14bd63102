package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

type respirationPayload struct {
	AvgWakingRespiration   *float64    `json:"avgWakingRespirationValue"`
	HighestRespiration     *float64    `json:"highestRespirationValue"`
	LowestRespiration      *float64    `json:"lowestRespirationValue"`
	AvgSleepRespiration    *float64    `json:"avgSleepRespirationValue"`
	RespirationValuesArray []valuePair `json:"respirationValuesArray"`
}

// RespirationDay parses a daily respiration payload. The provider reports a
// single highest/lowest across the day, applied to both the waking and
// sleeping columns.
func RespirationDay(date string, raw json.RawMessage) (domain.RespirationSummary, []domain.RespirationSample, error) {
	var payload respirationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.RespirationSummary{}, nil, fmt.Errorf("decode respiration payload: %w", err)
	}

	summary := domain.RespirationSummary{
		Date:         date,
		WakingAvg:    payload.AvgWakingRespiration,
		WakingHigh:   payload.HighestRespiration,
		WakingLow:    payload.LowestRespiration,
		SleepingAvg:  payload.AvgSleepRespiration,
		SleepingHigh: payload.HighestRespiration,
		SleepingLow:  payload.LowestRespiration,
		RawJSON:      raw,
	}

	samples := make([]domain.RespirationSample, 0, len(payload.RespirationValuesArray))
	for _, pair := range payload.RespirationValuesArray {
		ts, val, ok := pair.sampleAt()
		if !ok {
			continue
		}
		samples = append(samples, domain.RespirationSample{Time: ts, Value: val})
	}
	return summary, samples, nil
}
