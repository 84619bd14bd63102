package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

type hrvEnvelope struct {
	HRVSummary *hrvSummary `json:"hrvSummary"`
}

type hrvSummary struct {
	WeeklyAvg         *float64     `json:"weeklyAvg"`
	LastNightAvg      *float64     `json:"lastNightAvg"`
	LastNight5MinHigh *float64     `json:"lastNight5MinHigh"`
	Baseline          *hrvBaseline `json:"baseline"`
	Status            *string      `json:"status"`
}

type hrvBaseline struct {
	LowUpper      *float64 `json:"lowUpper"`
	BalancedLow   *float64 `json:"balancedLow"`
	BalancedUpper *float64 `json:"balancedUpper"`
}

// HRVDay parses a daily heart-rate-variability payload. The summary may sit
// under an hrvSummary envelope or at the top level, and its nested baseline
// object flattens into top-level columns. HRV has no sample series.
func HRVDay(date string, raw json.RawMessage) (domain.HRVSummary, error) {
	var envelope hrvEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.HRVSummary{}, fmt.Errorf("decode hrv payload: %w", err)
	}

	summary := envelope.HRVSummary
	if summary == nil {
		summary = &hrvSummary{}
		if err := json.Unmarshal(raw, summary); err != nil {
			return domain.HRVSummary{}, fmt.Errorf("decode hrv payload: %w", err)
		}
	}

	record := domain.HRVSummary{
		Date:              date,
		WeeklyAvg:         summary.WeeklyAvg,
		LastNightAvg:      summary.LastNightAvg,
		LastNight5MinHigh: summary.LastNight5MinHigh,
		Status:            summary.Status,
		RawJSON:           raw,
	}
	if summary.Baseline != nil {
		record.BaselineLowUpper = summary.Baseline.LowUpper
		record.BaselineBalancedLow = summary.Baseline.BalancedLow
		record.BaselineBalancedUpper = summary.Baseline.BalancedUpper
	}
	return record, nil
}
