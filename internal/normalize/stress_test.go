package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStressDayFiltersSentinelReadings(t *testing.T) {
	summary, samples, err := StressDay("2024-01-01", json.RawMessage(`{
		"avgStressLevel": 31,
		"maxStressLevel": 88,
		"stressValuesArray": [
			[1704096000000, -2],
			[1704096180000, 5],
			[1704096360000, -1],
			[1704096540000, 42]
		]
	}`))
	require.NoError(t, err)

	require.Equal(t, 31, *summary.OverallLevel)
	require.Equal(t, 88, *summary.PeakLevel)

	require.Len(t, samples, 2)
	require.Equal(t, time.Date(2024, 1, 1, 8, 3, 0, 0, time.UTC), samples[0].Time)
	require.Equal(t, 5, samples[0].Level)
	require.Equal(t, 42, samples[1].Level)
}

func TestStressDaySummaryWithoutSamples(t *testing.T) {
	summary, samples, err := StressDay("2024-01-01", json.RawMessage(`{
		"avgStressLevel": -1,
		"stressValuesArray": [[1704096000000, -1]]
	}`))
	require.NoError(t, err)

	// A sentinel summary value is stored as-is; only samples are filtered.
	require.Equal(t, -1, *summary.OverallLevel)
	require.Nil(t, summary.PeakLevel)
	require.Empty(t, samples)
	require.JSONEq(t, `{"avgStressLevel": -1, "stressValuesArray": [[1704096000000, -1]]}`, string(summary.RawJSON))
}
