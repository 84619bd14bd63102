package normalize

import (
	"encoding/json"
	"fmt"

	"example.com/wellsync/internal/domain"
)

type sleepPayload struct {
	DailySleepDTO *sleepDTO    `json:"dailySleepDTO"`
	SleepLevels   []sleepLevel `json:"sleepLevels"`
}

type sleepDTO struct {
	SleepStartTimestampGMT *int64       `json:"sleepStartTimestampGMT"`
	SleepEndTimestampGMT   *int64       `json:"sleepEndTimestampGMT"`
	SleepTimeSeconds       *int         `json:"sleepTimeSeconds"`
	DeepSleepSeconds       *int         `json:"deepSleepSeconds"`
	LightSleepSeconds      *int         `json:"lightSleepSeconds"`
	RemSleepSeconds        *int         `json:"remSleepSeconds"`
	AwakeSleepSeconds      *int         `json:"awakeSleepSeconds"`
	AwakeCount             *int         `json:"awakeCount"`
	AverageSpO2Value       *float64     `json:"averageSpO2Value"`
	LowestSpO2Value        *float64     `json:"lowestSpO2Value"`
	HighestSpO2Value       *float64     `json:"highestSpO2Value"`
	AverageRespiration     *float64     `json:"averageRespirationValue"`
	SleepScores            *sleepScores `json:"sleepScores"`
}

type sleepScores struct {
	Overall *struct {
		Value        *int    `json:"value"`
		QualifierKey *string `json:"qualifierKey"`
	} `json:"overall"`
}

type sleepLevel struct {
	StartGMT      *string  `json:"startGMT"`
	EndGMT        *string  `json:"endGMT"`
	ActivityLevel *float64 `json:"activityLevel"`
}

// SleepDay parses a daily sleep payload. A payload without a recorded sleep
// duration is "no data": the day yields domain.ErrNoData, nothing is
// persisted, and no sync success may be recorded for it.
func SleepDay(date string, raw json.RawMessage) (domain.SleepSummary, []domain.SleepStage, error) {
	var payload sleepPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.SleepSummary{}, nil, fmt.Errorf("decode sleep payload: %w", err)
	}

	dto := payload.DailySleepDTO
	if dto == nil || dto.SleepTimeSeconds == nil {
		return domain.SleepSummary{}, nil, domain.ErrNoData
	}

	summary := domain.SleepSummary{
		Date:           date,
		SleepStart:     timeFromMillisPtr(dto.SleepStartTimestampGMT),
		SleepEnd:       timeFromMillisPtr(dto.SleepEndTimestampGMT),
		TotalSleepMin:  secondsToMinutes(dto.SleepTimeSeconds),
		DeepSleepMin:   secondsToMinutes(dto.DeepSleepSeconds),
		LightSleepMin:  secondsToMinutes(dto.LightSleepSeconds),
		REMSleepMin:    secondsToMinutes(dto.RemSleepSeconds),
		AwakeMin:       secondsToMinutes(dto.AwakeSleepSeconds),
		RestlessCount:  dto.AwakeCount,
		AvgSpO2:        dto.AverageSpO2Value,
		LowSpO2:        dto.LowestSpO2Value,
		HighSpO2:       dto.HighestSpO2Value,
		AvgRespiration: dto.AverageRespiration,
		RawJSON:        raw,
	}
	if dto.SleepScores != nil && dto.SleepScores.Overall != nil {
		summary.Score = dto.SleepScores.Overall.Value
		summary.Quality = dto.SleepScores.Overall.QualifierKey
	}

	stages := make([]domain.SleepStage, 0, len(payload.SleepLevels))
	for _, level := range payload.SleepLevels {
		if level.StartGMT == nil || level.ActivityLevel == nil {
			continue
		}
		start, err := ParseGMTTimestamp(*level.StartGMT)
		if err != nil {
			continue
		}
		stage := domain.SleepStage{Start: start, Level: *level.ActivityLevel}
		if level.EndGMT != nil {
			if end, err := ParseGMTTimestamp(*level.EndGMT); err == nil {
				stage.End = &end
			}
		}
		stages = append(stages, stage)
	}
	return summary, stages, nil
}
