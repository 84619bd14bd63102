// Package provider implements the read-only HTTP boundary to the Garmin
// Connect API and the session lifecycle behind it. It returns raw payload
// bytes; all interpretation lives in the normalize package.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"example.com/wellsync/internal/config"
	"example.com/wellsync/internal/domain"
)

// ErrUnauthorized indicates the session is invalid or expired. It is fatal
// for the current run; the next scheduled invocation retries independently.
var ErrUnauthorized = errors.New("provider session unauthorized")

// Client calls the provider's connect API using a persisted session token.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	session     *Session
	displayName string
	logger      *log.Logger
}

// NewClient constructs a Client for the configured regional domain.
func NewClient(cfg config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		baseURL:    "https://connectapi." + cfg.ProviderDomain,
		session:    NewSession(cfg),
		logger:     log.New(log.Writer(), "[provider] ", log.LstdFlags),
	}
}

// EnsureLogin resumes the persisted session, re-authenticating with the
// configured credentials when resume fails, then resolves the account
// display name some endpoints embed in their path.
func (c *Client) EnsureLogin(ctx context.Context) error {
	if err := c.session.Resume(); err != nil {
		c.logger.Printf("session resume failed (%v), logging in", err)
		if err := c.session.Login(ctx, c.httpClient); err != nil {
			return fmt.Errorf("provider login: %w", err)
		}
	}

	settings, err := c.get(ctx, "/userprofile-service/userprofile/user-settings", nil)
	if err == nil {
		var payload struct {
			UserData struct {
				DisplayName string `json:"displayName"`
			} `json:"userData"`
		}
		if json.Unmarshal(settings, &payload) == nil && payload.UserData.DisplayName != "" {
			c.displayName = payload.UserData.DisplayName
		}
	}
	if c.displayName == "" {
		c.displayName = c.session.Username()
	}
	c.logger.Printf("session ready for %s", c.displayName)
	return nil
}

// ListActivities fetches one page of the reverse-chronological activity list.
func (c *Client) ListActivities(ctx context.Context, start, limit int) ([]json.RawMessage, error) {
	query := url.Values{
		"start": {strconv.Itoa(start)},
		"limit": {strconv.Itoa(limit)},
	}
	raw, err := c.get(ctx, "/activitylist-service/activities/search/activities", query)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode activity list: %w", err)
	}
	return items, nil
}

// ActivityDetail fetches the detail object for one activity.
func (c *Client) ActivityDetail(ctx context.Context, activityID string) (json.RawMessage, error) {
	return c.get(ctx, "/activity-service/activity/"+url.PathEscape(activityID), nil)
}

// ActivityTrack fetches the track payload (descriptors + metrics tuples).
func (c *Client) ActivityTrack(ctx context.Context, activityID string) (json.RawMessage, error) {
	return c.get(ctx, "/activity-service/activity/"+url.PathEscape(activityID)+"/details", nil)
}

// DailyMetric fetches one date-keyed wellness payload.
func (c *Client) DailyMetric(ctx context.Context, metric domain.MetricType, date string) (json.RawMessage, error) {
	switch metric {
	case domain.MetricHeartRate:
		return c.get(ctx, "/wellness-service/wellness/dailyHeartRate", url.Values{"date": {date}})
	case domain.MetricSleep:
		return c.get(ctx, "/wellness-service/wellness/dailySleepData/"+url.PathEscape(c.displayName),
			url.Values{"date": {date}, "nonSleepBufferMinutes": {"60"}})
	case domain.MetricStress:
		return c.get(ctx, "/wellness-service/wellness/dailyStress/"+date, nil)
	case domain.MetricSpO2:
		return c.get(ctx, "/wellness-service/wellness/daily/spo2/"+date, nil)
	case domain.MetricRespiration:
		return c.get(ctx, "/wellness-service/wellness/daily/respiration/"+date, nil)
	case domain.MetricHRV:
		return c.get(ctx, "/hrv-service/hrv/"+date, nil)
	default:
		return nil, fmt.Errorf("unknown metric type %q", metric)
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.AccessToken())
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return nil, domain.ErrNoData
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("GET %s: %w", path, ErrUnauthorized)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return nil, domain.ErrNoData
	}
	return body, nil
}
