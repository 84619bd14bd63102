package collector

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Clock in these tests is pinned to 2024-01-10T06:00:00Z; a two-day window
// puts the cutoff at 2024-01-08T06:00:00Z = 1704693600000 ms.
func listItem(id int64, beginMillis int64, polyline bool) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{
		"activityId":     id,
		"activityName":   "Morning Run",
		"beginTimestamp": beginMillis,
		"hasPolyline":    polyline,
		"duration":       1800.0,
	})
	return raw
}

func TestCollectActivitiesStopsPagingAtCutoff(t *testing.T) {
	provider := &stubProvider{listPages: [][]json.RawMessage{
		{
			listItem(101, 1704866400000, false), // 2024-01-10, inside window
			listItem(102, 1704780000000, false), // 2024-01-09, inside window
			listItem(103, 1704600000000, false), // 2024-01-07, past cutoff
		},
		{
			listItem(104, 1704500000000, false),
		},
	}}
	store := newStubStore()

	c := newTestCollector(t, provider, store)
	err := c.collectActivities(context.Background(), 2)
	require.NoError(t, err)

	// The first item past the cutoff ends listing; the second page is never
	// requested.
	require.Equal(t, 1, provider.listCalls)
	require.Len(t, store.activities, 2)
	require.Equal(t, "101", store.activities[0].ActivityID)
	require.Equal(t, "102", store.activities[1].ActivityID)
}

func TestCollectActivitiesSkipsExistingIDs(t *testing.T) {
	provider := &stubProvider{listPages: [][]json.RawMessage{
		{listItem(201, 1704866400000, true)},
	}}
	store := newStubStore()
	store.existing["201"] = true

	c := newTestCollector(t, provider, store)
	err := c.collectActivities(context.Background(), 2)
	require.NoError(t, err)

	require.Empty(t, store.activities)
	require.Empty(t, provider.detailCalls)
	require.Empty(t, provider.trackCalls)
}

func TestCollectActivitiesFetchesTrackForPolylineActivities(t *testing.T) {
	provider := &stubProvider{
		listPages: [][]json.RawMessage{
			{
				listItem(301, 1704866400000, true),
				listItem(302, 1704866400000, false),
			},
		},
		detail: map[string]json.RawMessage{
			"301": json.RawMessage(`{"summaryDTO": {"startTimeGMT": "2024-01-10T05:00:00.0", "duration": 1812.5}}`),
		},
		track: map[string]json.RawMessage{
			"301": json.RawMessage(`{
				"metricDescriptors": [
					{"key": "directTimestamp", "metricsIndex": 0},
					{"key": "directLatitude", "metricsIndex": 1},
					{"key": "directLongitude", "metricsIndex": 2},
					{"key": "directHeartRate", "metricsIndex": 3}
				],
				"activityDetailMetrics": [
					{"metrics": [1704862800000, 59.33, 18.06, 132]},
					{"metrics": [1704862801000, 59.34, 18.07, 134]}
				]
			}`),
		},
	}
	store := newStubStore()

	c := newTestCollector(t, provider, store)
	err := c.collectActivities(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, store.activities, 2)
	// The detail's recomputed duration replaces the list value.
	require.Equal(t, 1812.5, *store.activities[0].Duration)
	require.Equal(t, 1800.0, *store.activities[1].Duration)

	// Only the polyline-flagged activity triggers a track fetch.
	require.Equal(t, []string{"301"}, provider.trackCalls)
	require.Len(t, store.trackSaves, 1)
	require.Equal(t, "301", store.trackSaves[0].activityID)
	require.Len(t, store.trackSaves[0].points, 2)
	require.Equal(t, time.Date(2024, 1, 10, 5, 0, 0, 0, time.UTC), store.trackSaves[0].points[0].Time)
	require.Equal(t, 132, *store.trackSaves[0].points[0].HeartRate)
}

func TestCollectActivitiesToleratesMissingDetail(t *testing.T) {
	provider := &stubProvider{listPages: [][]json.RawMessage{
		{listItem(401, 1704866400000, false)},
	}}
	store := newStubStore()

	c := newTestCollector(t, provider, store)
	err := c.collectActivities(context.Background(), 2)
	require.NoError(t, err)

	// Detail stub answers no-data; the summary is built from the list item.
	require.Len(t, store.activities, 1)
	require.Equal(t, 1800.0, *store.activities[0].Duration)
	require.Nil(t, store.activities[0].ElevationGain)
}

func TestCollectActivitiesIsolatesPerActivityFailures(t *testing.T) {
	provider := &stubProvider{listPages: [][]json.RawMessage{
		{
			listItem(501, 1704866400000, false),
			listItem(502, 1704866400000, false),
		},
	}}
	store := newStubStore()
	store.saveActivityErr["501"] = errors.New("deadlock detected")

	c := newTestCollector(t, provider, store)
	err := c.collectActivities(context.Background(), 2)
	require.NoError(t, err)

	require.Len(t, store.activities, 1)
	require.Equal(t, "502", store.activities[0].ActivityID)
}

func TestRunCoversActivitiesAndEveryDailyMetric(t *testing.T) {
	provider := &stubProvider{}
	store := newStubStore()

	c := newTestCollector(t, provider, store)
	err := c.Run(context.Background(), 1)
	require.NoError(t, err)

	// Every daily metric was asked for yesterday; no-data answers leave no
	// sync records behind.
	require.Len(t, provider.dailyCalls, len(dailyMetricOrder))
	for i, metric := range dailyMetricOrder {
		require.Equal(t, dailyKey(metric, "2024-01-09"), provider.dailyCalls[i])
	}
	require.Empty(t, store.marks)
}
