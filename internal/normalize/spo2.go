package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

// Provenance labels for SpO2 samples.
const (
	SpO2SourceHourly     = "hourly"
	SpO2SourceContinuous = "continuous"
)

type spo2Payload struct {
	AverageSpO2          *float64            `json:"averageSpO2"`
	LowestSpO2           *float64            `json:"lowestSpO2"`
	LastSevenDaysAvgSpO2 *float64            `json:"lastSevenDaysAvgSpO2"`
	LatestSpO2           *float64            `json:"latestSpO2"`
	SpO2HourlyAverages   []valuePair         `json:"spO2HourlyAverages"`
	ContinuousReadings   []continuousReading `json:"continuousReadingDTOList"`
}

type continuousReading struct {
	SpO2           *float64 `json:"spo2"`
	ReadingTimeGMT flexTime `json:"readingTimeGMT"`
}

// SpO2Day parses a daily blood oxygen payload. The sample series merges two
// independently shaped sources, each tagged with its provenance; a sample
// time present in both keeps whichever row reaches the store first, by the
// store's first-write-wins constraint.
func SpO2Day(date string, raw json.RawMessage) (domain.SpO2Summary, []domain.SpO2Sample, error) {
	var payload spo2Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.SpO2Summary{}, nil, fmt.Errorf("decode spo2 payload: %w", err)
	}

	summary := domain.SpO2Summary{
		Date:        date,
		Avg:         payload.AverageSpO2,
		Lowest:      payload.LowestSpO2,
		SevenDayAvg: payload.LastSevenDaysAvgSpO2,
		Latest:      payload.LatestSpO2,
		RawJSON:     raw,
	}

	samples := make([]domain.SpO2Sample, 0, len(payload.SpO2HourlyAverages)+len(payload.ContinuousReadings))
	for _, pair := range payload.SpO2HourlyAverages {
		ts, val, ok := pair.sampleAt()
		if !ok {
			continue
		}
		samples = append(samples, domain.SpO2Sample{Time: ts, Value: val, Source: SpO2SourceHourly})
	}
	for _, reading := range payload.ContinuousReadings {
		if reading.SpO2 == nil || *reading.SpO2 == 0 || !reading.ReadingTimeGMT.Valid {
			continue
		}
		samples = append(samples, domain.SpO2Sample{
			Time:   reading.ReadingTimeGMT.Time,
			Value:  *reading.SpO2,
			Source: SpO2SourceContinuous,
		})
	}
	return summary, samples, nil
}
