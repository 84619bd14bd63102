package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestActivitySummaryDetailWinsOverListItem(t *testing.T) {
	item, err := ParseActivityListItem(json.RawMessage(`{
		"activityId": 12345,
		"activityName": "Morning Run",
		"activityType": {"typeKey": "running"},
		"startTimeLocal": "2024-01-01T07:30:00",
		"duration": 1800,
		"distance": 5000,
		"averageHR": 140
	}`))
	require.NoError(t, err)

	detail := &ActivityDetail{SummaryDTO: &ActivitySummaryDTO{
		Duration:      f64(1812.5),
		ElevationGain: f64(42),
	}}

	summary, err := ActivitySummary(item, detail)
	require.NoError(t, err)

	require.Equal(t, "12345", summary.ActivityID)
	// Detail value wins where present.
	require.InDelta(t, 1812.5, *summary.Duration, 1e-9)
	// List item fills fields the detail lacks.
	require.InDelta(t, 5000, *summary.Distance, 1e-9)
	require.InDelta(t, 140, *summary.AvgHR, 1e-9)
	// Detail-only fields come through.
	require.InDelta(t, 42, *summary.ElevationGain, 1e-9)
	// Fields neither source has stay null.
	require.Nil(t, summary.AvgPower)
	require.Equal(t, "running", *summary.ActivityType)
	require.NotNil(t, summary.StartTime)
	require.JSONEq(t, string(item.Raw), string(summary.RawJSON))
}

func TestActivitySummaryToleratesMissingDetail(t *testing.T) {
	item, err := ParseActivityListItem(json.RawMessage(`{"activityId": 9, "calories": 300}`))
	require.NoError(t, err)

	summary, err := ActivitySummary(item, nil)
	require.NoError(t, err)
	require.Equal(t, "9", summary.ActivityID)
	require.InDelta(t, 300, *summary.Calories, 1e-9)
	require.Nil(t, summary.ElevationGain)
}

func TestActivitySummaryRequiresID(t *testing.T) {
	item, err := ParseActivityListItem(json.RawMessage(`{"activityName": "orphan"}`))
	require.NoError(t, err)

	_, err = ActivitySummary(item, nil)
	require.Error(t, err)
}

func TestParseActivityDetailNilInput(t *testing.T) {
	detail, err := ParseActivityDetail(nil)
	require.NoError(t, err)
	require.Nil(t, detail)
}

func f64(v float64) *float64 { return &v }
