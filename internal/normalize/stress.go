package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

type stressPayload struct {
	AvgStressLevel    *int        `json:"avgStressLevel"`
	MaxStressLevel    *int        `json:"maxStressLevel"`
	StressValuesArray []valuePair `json:"stressValuesArray"`
}

// StressDay parses a daily stress payload. Negative readings are provider
// sentinels for "no reading" or "resting" and are excluded from the sample
// series; the summary is written regardless, with the sentinels preserved in
// its raw payload.
func StressDay(date string, raw json.RawMessage) (domain.StressSummary, []domain.StressSample, error) {
	var payload stressPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.StressSummary{}, nil, fmt.Errorf("decode stress payload: %w", err)
	}

	summary := domain.StressSummary{
		Date:         date,
		OverallLevel: payload.AvgStressLevel,
		PeakLevel:    payload.MaxStressLevel,
		RawJSON:      raw,
	}

	samples := make([]domain.StressSample, 0, len(payload.StressValuesArray))
	for _, pair := range payload.StressValuesArray {
		ts, val, ok := pair.sampleAt()
		if !ok || val < 0 {
			continue
		}
		samples = append(samples, domain.StressSample{Time: ts, Level: int(val)})
	}
	return summary, samples, nil
}
