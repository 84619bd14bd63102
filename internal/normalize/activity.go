package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"example.com/wellsync/internal/domain"
)

// ActivityListItem is one element of the provider's activity search list.
// Raw retains the untouched payload bytes for the summary audit column.
type ActivityListItem struct {
	ActivityID     *int64            `json:"activityId"`
	ActivityName   *string           `json:"activityName"`
	ActivityType   *activityTypeInfo `json:"activityType"`
	StartTimeLocal *string           `json:"startTimeLocal"`
	EndTimeGMT     *string           `json:"endTimeGMT"`
	BeginTimestamp *int64            `json:"beginTimestamp"`
	HasPolyline    bool              `json:"hasPolyline"`
	Duration       *float64          `json:"duration"`
	Distance       *float64          `json:"distance"`
	Calories       *float64          `json:"calories"`
	AverageHR      *float64          `json:"averageHR"`
	MaxHR          *float64          `json:"maxHR"`
	AverageSpeed   *float64          `json:"averageSpeed"`
	MaxSpeed       *float64          `json:"maxSpeed"`
	AvgCadence     *float64          `json:"averageRunningCadenceInStepsPerMinute"`
	MaxCadence     *float64          `json:"maxRunningCadenceInStepsPerMinute"`
	TrainingEffect *float64          `json:"aerobicTrainingEffect"`
	AnaerobicTE    *float64          `json:"anaerobicTrainingEffect"`
	AvgPower       *float64          `json:"avgPower"`
	MaxPower       *float64          `json:"maxPower"`
	VO2Max         *float64          `json:"vO2MaxValue"`

	Raw json.RawMessage `json:"-"`
}

type activityTypeInfo struct {
	TypeKey *string `json:"typeKey"`
}

// ParseActivityListItem decodes one list element, keeping the raw bytes.
func ParseActivityListItem(raw json.RawMessage) (ActivityListItem, error) {
	var item ActivityListItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return ActivityListItem{}, fmt.Errorf("decode activity list item: %w", err)
	}
	item.Raw = append(json.RawMessage(nil), raw...)
	return item, nil
}

// ID renders the provider's numeric activity id as the canonical string key.
func (item ActivityListItem) ID() string {
	if item.ActivityID == nil {
		return ""
	}
	return strconv.FormatInt(*item.ActivityID, 10)
}

// ActivityDetail is the optional detail-endpoint payload for one activity.
type ActivityDetail struct {
	SummaryDTO *ActivitySummaryDTO `json:"summaryDTO"`
}

// ActivitySummaryDTO carries the detail endpoint's recomputed aggregates.
// Elevation and start/end coordinates exist only here, never on list items.
type ActivitySummaryDTO struct {
	StartTimeGMT   *string  `json:"startTimeGMT"`
	Duration       *float64 `json:"duration"`
	Distance       *float64 `json:"distance"`
	Calories       *float64 `json:"calories"`
	AverageHR      *float64 `json:"averageHR"`
	MaxHR          *float64 `json:"maxHR"`
	AverageSpeed   *float64 `json:"averageSpeed"`
	MaxSpeed       *float64 `json:"maxSpeed"`
	AvgRunCadence  *float64 `json:"averageRunCadence"`
	MaxRunCadence  *float64 `json:"maxRunCadence"`
	ElevationGain  *float64 `json:"elevationGain"`
	ElevationLoss  *float64 `json:"elevationLoss"`
	StartLatitude  *float64 `json:"startLatitude"`
	StartLongitude *float64 `json:"startLongitude"`
	EndLatitude    *float64 `json:"endLatitude"`
	EndLongitude   *float64 `json:"endLongitude"`
}

// ParseActivityDetail decodes the detail payload. A nil input is tolerated
// and yields a nil detail, degrading summary quality without failing.
func ParseActivityDetail(raw json.RawMessage) (*ActivityDetail, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var detail ActivityDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("decode activity detail: %w", err)
	}
	return &detail, nil
}

// ActivitySummary merges the list item with the optional detail payload into
// a canonical record. Detail values win when present, the list item fills the
// gaps, and fields neither source carries stay null.
func ActivitySummary(item ActivityListItem, detail *ActivityDetail) (domain.ActivitySummary, error) {
	if item.ActivityID == nil {
		return domain.ActivitySummary{}, errors.New("activity list item has no activity id")
	}

	var dto *ActivitySummaryDTO
	if detail != nil {
		dto = detail.SummaryDTO
	}
	if dto == nil {
		dto = &ActivitySummaryDTO{}
	}

	summary := domain.ActivitySummary{
		ActivityID:      item.ID(),
		Name:            item.ActivityName,
		Duration:        pick(dto.Duration, item.Duration),
		Distance:        pick(dto.Distance, item.Distance),
		Calories:        pick(dto.Calories, item.Calories),
		AvgHR:           pick(dto.AverageHR, item.AverageHR),
		MaxHR:           pick(dto.MaxHR, item.MaxHR),
		AvgSpeed:        pick(dto.AverageSpeed, item.AverageSpeed),
		MaxSpeed:        pick(dto.MaxSpeed, item.MaxSpeed),
		AvgCadence:      pick(dto.AvgRunCadence, item.AvgCadence),
		MaxCadence:      pick(dto.MaxRunCadence, item.MaxCadence),
		ElevationGain:   dto.ElevationGain,
		ElevationLoss:   dto.ElevationLoss,
		StartLat:        dto.StartLatitude,
		StartLng:        dto.StartLongitude,
		EndLat:          dto.EndLatitude,
		EndLng:          dto.EndLongitude,
		TrainingEffect:  item.TrainingEffect,
		AnaerobicEffect: item.AnaerobicTE,
		AvgPower:        item.AvgPower,
		MaxPower:        item.MaxPower,
		VO2Max:          item.VO2Max,
		RawJSON:         item.Raw,
	}
	if item.ActivityType != nil {
		summary.ActivityType = item.ActivityType.TypeKey
		summary.SportType = item.ActivityType.TypeKey
	}
	if item.StartTimeLocal != nil {
		if ts, err := ParseGMTTimestamp(*item.StartTimeLocal); err == nil {
			summary.StartTime = &ts
		}
	}
	if item.EndTimeGMT != nil {
		if ts, err := ParseGMTTimestamp(*item.EndTimeGMT); err == nil {
			summary.EndTime = &ts
		}
	}
	return summary, nil
}

func pick(detail, fallback *float64) *float64 {
	if detail != nil {
		return detail
	}
	return fallback
}
