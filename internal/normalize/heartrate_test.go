package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHeartRateDay(t *testing.T) {
	summary, samples, err := HeartRateDay("2024-01-01", json.RawMessage(`{
		"restingHeartRate": 52,
		"maxHeartRate": 161,
		"minHeartRate": 48,
		"heartRateValues": [
			[1704096000000, 61],
			[1704096120000, null],
			[null, 70],
			[1704096240000, 66]
		]
	}`))
	require.NoError(t, err)

	require.Equal(t, "2024-01-01", summary.Date)
	require.Equal(t, 52, *summary.RestingHR)
	require.Equal(t, 161, *summary.MaxHR)
	require.Equal(t, 48, *summary.MinHR)

	// Pairs with a null slot are dropped.
	require.Len(t, samples, 2)
	require.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), samples[0].Time)
	require.Equal(t, 61, samples[0].BPM)
	require.Equal(t, 66, samples[1].BPM)
}

func TestHeartRateDayWithoutSeries(t *testing.T) {
	summary, samples, err := HeartRateDay("2024-01-01", json.RawMessage(`{"restingHeartRate": 50}`))
	require.NoError(t, err)
	require.Equal(t, 50, *summary.RestingHR)
	require.Nil(t, summary.MaxHR)
	require.Empty(t, samples)
}
