// Package analysis computes redress delta distributions and answers coverage queries.
//
// A campaign's redress events are turned into delta days (event date minus Day 0),
// grouped into a cumulative distribution table, and queried in both directions:
//
//	DayForCoverage(x)  -> earliest delta day by which x% of redresses have arrived
//	CoverageForDay(n)  -> percentage of redresses that arrived within n days
//
// Aggregate combines several campaigns under one of two weighting policies.
// Pooled concatenates all records, so larger campaigns dominate.
// PercentileAverage averages per-campaign percentiles, so each campaign counts once.
//
// All functions are pure: they read immutable campaign snapshots and return fresh results.
package analysis

import (
	"fmt"
	"time"

	"github.com/rewired-gh/redress-analyzer/internal/models"
)

const secondsPerDay = 86400

// ComputeDelta returns the signed number of whole calendar days from dayZero to eventDate.
// Only the calendar date of each argument is used; time of day and location are ignored.
func ComputeDelta(dayZero, eventDate time.Time) (int, error) {
	if dayZero.IsZero() {
		return 0, &models.InvalidDateError{Field: "day zero", Value: dayZero.String()}
	}
	if eventDate.IsZero() {
		return 0, &models.InvalidDateError{Field: "event date", Value: eventDate.String()}
	}

	// Unix seconds of two UTC midnights; time.Duration would saturate past ~292 years.
	d0 := models.DateOnly(dayZero).Unix()
	d1 := models.DateOnly(eventDate).Unix()
	return int((d1 - d0) / secondsPerDay), nil
}

// CampaignDeltas computes one DeltaRecord per campaign event, in event order.
func CampaignDeltas(c *models.Campaign) ([]models.DeltaRecord, error) {
	records := make([]models.DeltaRecord, 0, len(c.Events))
	for i, e := range c.Events {
		delta, err := ComputeDelta(c.DayZero, e.Date)
		if err != nil {
			return nil, fmt.Errorf("campaign %s event %d: %w", c.Name, i, err)
		}
		records = append(records, models.DeltaRecord{Delta: delta, Reason: e.Reason})
	}
	return records, nil
}
