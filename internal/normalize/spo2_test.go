package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSpO2DayMergesHourlyAndContinuousSeries(t *testing.T) {
	summary, samples, err := SpO2Day("2024-01-01", json.RawMessage(`{
		"averageSpO2": 95.0,
		"lowestSpO2": 89.0,
		"lastSevenDaysAvgSpO2": 94.5,
		"latestSpO2": 96.0,
		"spO2HourlyAverages": [
			[1704096000000, 95],
			[null, 94]
		],
		"continuousReadingDTOList": [
			{"spo2": 93, "readingTimeGMT": "2024-01-01T08:05:00.0"},
			{"spo2": 92, "readingTimeGMT": 1704096600000},
			{"spo2": 0, "readingTimeGMT": "2024-01-01T08:15:00.0"},
			{"spo2": 91, "readingTimeGMT": null}
		]
	}`))
	require.NoError(t, err)

	require.Equal(t, 95.0, *summary.Avg)
	require.Equal(t, 89.0, *summary.Lowest)
	require.Equal(t, 94.5, *summary.SevenDayAvg)
	require.Equal(t, 96.0, *summary.Latest)

	require.Len(t, samples, 3)
	require.Equal(t, SpO2SourceHourly, samples[0].Source)
	require.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), samples[0].Time)
	require.Equal(t, 95.0, samples[0].Value)

	// Continuous readings accept both timestamp encodings.
	require.Equal(t, SpO2SourceContinuous, samples[1].Source)
	require.Equal(t, time.Date(2024, 1, 1, 8, 5, 0, 0, time.UTC), samples[1].Time)
	require.Equal(t, SpO2SourceContinuous, samples[2].Source)
	require.Equal(t, time.Date(2024, 1, 1, 8, 10, 0, 0, time.UTC), samples[2].Time)
	require.Equal(t, 92.0, samples[2].Value)
}

func TestSpO2DayEmptyPayload(t *testing.T) {
	summary, samples, err := SpO2Day("2024-01-01", json.RawMessage(`{}`))
	require.NoError(t, err)
	require.Nil(t, summary.Avg)
	require.Empty(t, samples)
}
