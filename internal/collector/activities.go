package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/wellsync/internal/domain"
	"example.com/wellsync/internal/normalize"
	"example.com/wellsync/internal/observability"
)

// collectActivities pages the reverse-chronological activity list back to
// the lookback cutoff and ingests every activity not already in the store.
// Activities are id-addressed, so existence of the summary row is the dedup
// gate rather than a sync record. One failing activity never aborts the rest.
func (c *Collector) collectActivities(ctx context.Context, lookbackDays int) error {
	cutoffMillis := c.now().AddDate(0, 0, -lookbackDays).UnixMilli()

	items, err := c.listUntilCutoff(ctx, cutoffMillis)
	if err != nil {
		return err
	}
	c.logger.Printf("activities: %d listed within window", len(items))

	var saved, skipped int
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := item.ID()
		if id == "" {
			c.logger.Printf("activities: list item without id dropped")
			continue
		}

		exists, err := c.store.ActivityExists(ctx, id)
		if err != nil {
			c.logger.Printf("activity %s: dedup check failed: %v", id, err)
			observability.RecordActivity(observability.OutcomeFailed)
			continue
		}
		if exists {
			skipped++
			observability.RecordActivity(observability.OutcomeSkipped)
			continue
		}

		if err := c.ingestActivity(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			c.logger.Printf("activity %s: %v", id, err)
			observability.RecordActivity(observability.OutcomeFailed)
			continue
		}
		saved++
		observability.RecordActivity(observability.OutcomeSuccess)
	}

	c.logger.Printf("activities: %d saved, %d skipped, %d listed", saved, skipped, len(items))
	return nil
}

// listUntilCutoff accumulates list items newest-first until the first item
// older than the cutoff, then stops paging. The provider's list is assumed
// sorted newest-first within and across pages.
func (c *Collector) listUntilCutoff(ctx context.Context, cutoffMillis int64) ([]normalize.ActivityListItem, error) {
	var collected []normalize.ActivityListItem
	for start := 0; ; start += c.pageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.provider.ListActivities(ctx, start, c.pageSize)
		if err != nil {
			if errors.Is(err, domain.ErrNoData) {
				return collected, nil
			}
			return nil, fmt.Errorf("list activities at offset %d: %w", start, err)
		}
		if len(page) == 0 {
			return collected, nil
		}

		for _, raw := range page {
			item, err := normalize.ParseActivityListItem(raw)
			if err != nil {
				c.logger.Printf("activities: undecodable list item dropped: %v", err)
				continue
			}
			if beginMillis(item) < cutoffMillis {
				return collected, nil
			}
			collected = append(collected, item)
		}
	}
}

func beginMillis(item normalize.ActivityListItem) int64 {
	if item.BeginTimestamp == nil {
		return 0
	}
	return *item.BeginTimestamp
}

// ingestActivity fetches detail and track payloads for one activity and
// persists the canonical rows. Absent detail degrades summary quality but
// does not abort; the track payload is only fetched when the list item
// flags GPS availability.
func (c *Collector) ingestActivity(ctx context.Context, item normalize.ActivityListItem) error {
	id := item.ID()

	var detail *normalize.ActivityDetail
	rawDetail, err := c.provider.ActivityDetail(ctx, id)
	switch {
	case err == nil:
		if detail, err = normalize.ParseActivityDetail(rawDetail); err != nil {
			c.logger.Printf("activity %s: detail unusable: %v", id, err)
			detail = nil
		}
	case errors.Is(err, domain.ErrNoData):
		// Summary falls back to list-item fields alone.
	case errors.Is(err, context.Canceled):
		return err
	default:
		c.logger.Printf("activity %s: detail fetch failed: %v", id, err)
	}

	summary, err := normalize.ActivitySummary(item, detail)
	if err != nil {
		return err
	}
	if err := c.store.SaveActivity(ctx, summary); err != nil {
		return fmt.Errorf("persist summary: %w", err)
	}

	if !item.HasPolyline {
		return nil
	}

	rawTrack, err := c.provider.ActivityTrack(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNoData) {
			return nil
		}
		return fmt.Errorf("fetch track: %w", err)
	}
	payload, err := normalize.ParseTrackPayload(rawTrack)
	if err != nil {
		return err
	}

	points := normalize.TrackPoints(payload, activityStartGMT(detail))
	if len(points) == 0 {
		return nil
	}
	if err := c.store.SaveTrackPoints(ctx, id, points); err != nil {
		return fmt.Errorf("persist track points: %w", err)
	}
	observability.RecordSamples(domain.MetricActivity, len(points))
	c.logger.Printf("activity %s: %d track points", id, len(points))
	return nil
}

// activityStartGMT extracts the detail payload's GMT start for the track
// point elapsed-time fallback chain.
func activityStartGMT(detail *normalize.ActivityDetail) *time.Time {
	if detail == nil || detail.SummaryDTO == nil || detail.SummaryDTO.StartTimeGMT == nil {
		return nil
	}
	ts, err := normalize.ParseGMTTimestamp(*detail.SummaryDTO.StartTimeGMT)
	if err != nil {
		return nil
	}
	return &ts
}
