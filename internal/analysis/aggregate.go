package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// Weighting selects how campaigns are combined into one headline figure.
type Weighting string

const (
	// Pooled concatenates every campaign's records before computing percentiles.
	Pooled Weighting = "pooled"
	// PercentileAverage averages each campaign's own percentiles, unweighted by size.
	PercentileAverage Weighting = "percentile_average"
)

// ParseWeighting converts a configuration or query value into a Weighting.
func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(strings.ToLower(strings.TrimSpace(s))) {
	case Pooled:
		return Pooled, nil
	case PercentileAverage:
		return PercentileAverage, nil
	default:
		return "", fmt.Errorf("unknown weighting %q: must be %q or %q", s, Pooled, PercentileAverage)
	}
}

// Label returns a human-readable name for reports.
func (w Weighting) Label() string {
	switch w {
	case Pooled:
		return "Pooled records"
	case PercentileAverage:
		return "Average of per-campaign percentiles"
	default:
		return string(w)
	}
}

// CampaignSummary is one row of the per-campaign table of an aggregate.
// Percentiles are invalid when the campaign has no records after filtering.
type CampaignSummary struct {
	Name        string      `json:"name"`
	File        string      `json:"file"`
	DayZero     time.Time   `json:"day_zero"`
	Records     int         `json:"records"`
	Percentiles Percentiles `json:"percentiles"`
}

// HasData reports whether the campaign contributed any records.
func (s CampaignSummary) HasData() bool {
	return s.Records > 0
}

// Headline is the combined percentile figure of an aggregate, always labeled
// with the weighting that produced it.
type Headline struct {
	Weighting Weighting `json:"weighting"`
	Campaigns int       `json:"campaigns"` // Campaigns that contributed records
	Records   int       `json:"records"`
	P50       NullFloat `json:"p50"`
	P90       NullFloat `json:"p90"`
	P95       NullFloat `json:"p95"`
	P99       NullFloat `json:"p99"`
}

// AggregateResult is the output of Aggregate.
type AggregateResult struct {
	Filter       Filter            `json:"filter"`
	Distribution *Table            `json:"distribution"` // Pooled records of all campaigns, for charting
	Headline     Headline          `json:"headline"`
	Campaigns    []CampaignSummary `json:"campaigns"`
}

// Aggregate combines campaigns under the given weighting. The filter is applied
// identically to every campaign. The per-campaign summary is always computed.
func Aggregate(campaigns []models.Campaign, filter Filter, weighting Weighting) (*AggregateResult, error) {
	if weighting != Pooled && weighting != PercentileAverage {
		return nil, fmt.Errorf("unknown weighting %q", weighting)
	}

	summaries := make([]CampaignSummary, 0, len(campaigns))
	var pooled []int
	for i := range campaigns {
		c := &campaigns[i]
		deltas, err := FilteredDeltas(c, filter)
		if err != nil {
			return nil, err
		}
		pooled = append(pooled, deltas...)
		summaries = append(summaries, CampaignSummary{
			Name:        c.Name,
			File:        c.File,
			DayZero:     c.DayZero,
			Records:     len(deltas),
			Percentiles: BuildDistribution(deltas).Percentiles(),
		})
	}

	dist := BuildDistribution(pooled)

	var headline Headline
	switch weighting {
	case Pooled:
		headline = pooledHeadline(dist, summaries)
	case PercentileAverage:
		headline = averageHeadline(summaries)
	}

	return &AggregateResult{
		Filter:       filter,
		Distribution: dist,
		Headline:     headline,
		Campaigns:    summaries,
	}, nil
}

// pooledHeadline reads percentiles off the concatenated distribution.
func pooledHeadline(dist *Table, summaries []CampaignSummary) Headline {
	p := dist.Percentiles()
	return Headline{
		Weighting: Pooled,
		Campaigns: countWithData(summaries),
		Records:   dist.Total,
		P50:       p.P50.AsFloat(),
		P90:       p.P90.AsFloat(),
		P95:       p.P95.AsFloat(),
		P99:       p.P99.AsFloat(),
	}
}

// averageHeadline is the unweighted mean of each campaign's own percentiles.
// Campaigns without data are left out of the mean.
func averageHeadline(summaries []CampaignSummary) Headline {
	var p50, p90, p95, p99 []float64
	records := 0
	for _, s := range summaries {
		if !s.HasData() {
			continue
		}
		records += s.Records
		p50 = appendValid(p50, s.Percentiles.P50)
		p90 = appendValid(p90, s.Percentiles.P90)
		p95 = appendValid(p95, s.Percentiles.P95)
		p99 = appendValid(p99, s.Percentiles.P99)
	}
	return Headline{
		Weighting: PercentileAverage,
		Campaigns: countWithData(summaries),
		Records:   records,
		P50:       mean(p50),
		P90:       mean(p90),
		P95:       mean(p95),
		P99:       mean(p99),
	}
}

func countWithData(summaries []CampaignSummary) int {
	n := 0
	for _, s := range summaries {
		if s.HasData() {
			n++
		}
	}
	return n
}

func appendValid(xs []float64, d NullDays) []float64 {
	if d.Valid {
		xs = append(xs, float64(d.Value))
	}
	return xs
}

func mean(xs []float64) NullFloat {
	if len(xs) == 0 {
		return NullFloat{}
	}
	return Float(stats.Mean(xs))
}
