package analysis

import (
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/redress-analyzer/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// campaignWithDeltas builds a campaign whose events sit at the given delta days.
func campaignWithDeltas(name string, deltas ...int) models.Campaign {
	dayZero := date(2025, 3, 15)
	c := models.Campaign{
		Name:         name,
		File:         name + "_2025-03.xlsx",
		DayZero:      dayZero,
		AnchorSource: models.AnchorFromFile,
	}
	for _, d := range deltas {
		c.Events = append(c.Events, models.Event{Reason: "Moved", Date: dayZero.AddDate(0, 0, d)})
	}
	return c
}

func TestComputeDelta(t *testing.T) {
	dayZero := date(2025, 3, 15)

	tests := []struct {
		name  string
		event time.Time
		want  int
	}{
		{"after day zero", date(2025, 3, 18), 3},
		{"before day zero", date(2025, 3, 10), -5},
		{"same day", date(2025, 3, 15), 0},
		{"time of day ignored", time.Date(2025, 3, 18, 23, 59, 0, 0, time.UTC), 3},
		{"across DST change", time.Date(2025, 4, 1, 0, 30, 0, 0, time.FixedZone("CEST", 7200)), 17},
		{"across year end", date(2026, 1, 2), 293},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDelta(dayZero, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDeltaLongSpan(t *testing.T) {
	tests := []struct {
		name    string
		dayZero time.Time
		event   time.Time
		want    int
	}{
		// 400 Gregorian years are exactly 146097 days.
		{"four centuries", date(1900, 1, 1), date(2300, 1, 1), 146097},
		{"four centuries backwards", date(2300, 1, 1), date(1900, 1, 1), -146097},
		{"mistyped year", date(2025, 3, 15), date(205, 3, 18), -664739},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeDelta(tt.dayZero, tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeDeltaInvalidDate(t *testing.T) {
	_, err := ComputeDelta(time.Time{}, date(2025, 3, 18))
	var dateErr *models.InvalidDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "day zero", dateErr.Field)

	_, err = ComputeDelta(date(2025, 3, 15), time.Time{})
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "event date", dateErr.Field)
}

func TestCampaignDeltas(t *testing.T) {
	c := campaignWithDeltas("Spring", 3, -5, 0)
	records, err := CampaignDeltas(&c)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []models.DeltaRecord{
		{Delta: 3, Reason: "Moved"},
		{Delta: -5, Reason: "Moved"},
		{Delta: 0, Reason: "Moved"},
	}, records)
}

func TestBuildDistribution(t *testing.T) {
	table := BuildDistribution([]int{3, 1, 3, 10, 1, 1})

	require.Len(t, table.Entries, 3)
	assert.Equal(t, 6, table.Total)
	assert.Equal(t, Entry{Delta: 1, Count: 3, CumulativeCount: 3, CumulativePct: 50}, table.Entries[0])
	assert.Equal(t, 3, table.Entries[1].Delta)
	assert.InDelta(t, 83.333, table.Entries[1].CumulativePct, 0.001)
	assert.Equal(t, 100.0, table.Entries[2].CumulativePct)
}

func TestBuildDistributionProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 50; round++ {
		deltas := make([]int, rng.Intn(200)+1)
		for i := range deltas {
			deltas[i] = rng.Intn(60) - 5
		}
		table := BuildDistribution(deltas)

		sum := 0
		for i, e := range table.Entries {
			sum += e.Count
			if i > 0 {
				prev := table.Entries[i-1]
				assert.Less(t, prev.Delta, e.Delta, "entries must be ascending")
				assert.LessOrEqual(t, prev.CumulativePct, e.CumulativePct, "cumulative must not decrease")
			}
		}
		assert.Equal(t, len(deltas), sum, "counts must sum to input length")
		assert.InDelta(t, 100.0, table.Entries[len(table.Entries)-1].CumulativePct, 1e-9)

		// Recovered threshold never exceeds the queried day.
		for _, e := range table.Entries {
			cov, ok := table.CoverageForDay(e.Delta)
			require.True(t, ok)
			day, ok := table.DayForCoverage(cov)
			require.True(t, ok)
			assert.LessOrEqual(t, day, e.Delta)
		}
	}
}

func TestEmptyDistribution(t *testing.T) {
	table := BuildDistribution(nil)
	assert.True(t, table.Empty())
	assert.Equal(t, 0, table.Total)

	_, ok := table.DayForCoverage(95)
	assert.False(t, ok)
	_, ok = table.CoverageForDay(10)
	assert.False(t, ok)

	p := table.Percentiles()
	assert.False(t, p.P50.Valid)
	assert.False(t, p.P99.Valid)
	assert.Equal(t, "no data", p.P95.String())

	s := table.Stats()
	assert.Equal(t, 0, s.Count)
	assert.False(t, s.Mean.Valid)
}

func TestDayForCoverage(t *testing.T) {
	// 20 records: delta 0 x10, 2 x9, 7 x1 -> 50%, 95%, 100%
	var deltas []int
	for i := 0; i < 10; i++ {
		deltas = append(deltas, 0)
	}
	for i := 0; i < 9; i++ {
		deltas = append(deltas, 2)
	}
	deltas = append(deltas, 7)
	table := BuildDistribution(deltas)

	tests := []struct {
		target float64
		want   int
		ok     bool
	}{
		{1, 0, true},
		{50, 0, true},
		{50.01, 2, true},
		{95, 2, true},
		{95.5, 7, true},
		{100, 7, true},
		{100.5, 0, false},
	}
	for _, tt := range tests {
		got, ok := table.DayForCoverage(tt.target)
		assert.Equal(t, tt.ok, ok, "target %v", tt.target)
		if tt.ok {
			assert.Equal(t, tt.want, got, "target %v", tt.target)
		}
	}
}

func TestCoverageForDay(t *testing.T) {
	table := BuildDistribution([]int{2, 2, 5, 9})

	tests := []struct {
		days int
		want float64
	}{
		{-3, 0},
		{1, 0},
		{2, 50},
		{4, 50},
		{5, 75},
		{9, 100},
		{400, 100},
	}
	for _, tt := range tests {
		got, ok := table.CoverageForDay(tt.days)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "days %d", tt.days)
	}
}

func TestPercentilesNearestRank(t *testing.T) {
	// 1..100: nearest rank puts p-th percentile at value p.
	deltas := make([]int, 100)
	for i := range deltas {
		deltas[i] = i + 1
	}
	p := BuildDistribution(deltas).Percentiles()
	assert.Equal(t, Days(50), p.P50)
	assert.Equal(t, Days(90), p.P90)
	assert.Equal(t, Days(95), p.P95)
	assert.Equal(t, Days(99), p.P99)

	labeled := p.Labeled()
	require.Len(t, labeled, 4)
	assert.Equal(t, "Median (50%)", labeled[0].Label)
	assert.Equal(t, "99th percentile", labeled[3].Label)
	assert.Equal(t, Days(99), labeled[3].Days)
}

func TestStats(t *testing.T) {
	s := BuildDistribution([]int{-2, 4, 4, 10}).Stats()
	assert.Equal(t, 4, s.Count)
	assert.Equal(t, Float(4), s.Mean)
	assert.Equal(t, Days(-2), s.Min)
	assert.Equal(t, Days(10), s.Max)
}

func TestFilter(t *testing.T) {
	records := []models.DeltaRecord{
		{Delta: -2, Reason: "Moved"},
		{Delta: 3, Reason: "Unknown"},
		{Delta: 5, Reason: "Moved"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []int
	}{
		{"no filter", Filter{}, []int{-2, 3, 5}},
		{"exclude negative", Filter{ExcludeNegative: true}, []int{3, 5}},
		{"reason", Filter{Reasons: []string{"Moved"}}, []int{-2, 5}},
		{"reason and negative", Filter{Reasons: []string{"Moved"}, ExcludeNegative: true}, []int{5}},
		{"unknown reason", Filter{Reasons: []string{"Deceased"}}, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Apply(records))
		})
	}
}

func TestNegativeDeltaExclusion(t *testing.T) {
	c := campaignWithDeltas("Spring", -2, -2, -2, 1, 4)

	excluded, err := AnalyzeCampaign(&c, Filter{ExcludeNegative: true}, DefaultView())
	require.NoError(t, err)
	for _, e := range excluded.Table.Entries {
		assert.NotEqual(t, -2, e.Delta)
	}
	assert.Equal(t, Days(1), excluded.Percentiles.P50)
	assert.Equal(t, Days(1), excluded.Stats.Min)

	included, err := AnalyzeCampaign(&c, Filter{}, DefaultView())
	require.NoError(t, err)
	assert.Equal(t, Days(-2), included.Percentiles.P50, "negatives shift the median down")
	assert.Equal(t, 5, included.Used)
}

func TestAnalyzeCampaign(t *testing.T) {
	c := campaignWithDeltas("Spring", 1, 2, 2, 3, 14)
	c.SkippedRows = 2

	a, err := AnalyzeCampaign(&c, Filter{ExcludeNegative: true}, View{TargetCoverage: 80, WaitDays: 2, MinSampleSize: 30})
	require.NoError(t, err)

	assert.Equal(t, 7, a.RowsRead)
	assert.Equal(t, 5, a.ValidDates)
	assert.Equal(t, 5, a.Used)
	assert.True(t, a.SmallSample)
	assert.Equal(t, Days(3), a.NeededDays)
	assert.Equal(t, Float(60), a.Coverage)
	assert.Equal(t, []string{"Moved"}, a.Reasons)
	assert.True(t, a.HasData())
}

func TestAnalyzeCampaignNoData(t *testing.T) {
	c := campaignWithDeltas("Spring", -4, -1)
	a, err := AnalyzeCampaign(&c, Filter{ExcludeNegative: true}, DefaultView())
	require.NoError(t, err)
	assert.False(t, a.HasData())
	assert.False(t, a.NeededDays.Valid)
	assert.False(t, a.Coverage.Valid)
}

func TestAnalyzeCampaignInvalidView(t *testing.T) {
	c := campaignWithDeltas("Spring", 1)
	_, err := AnalyzeCampaign(&c, Filter{}, View{TargetCoverage: 0})
	assert.Error(t, err)
	_, err = AnalyzeCampaign(&c, Filter{}, View{TargetCoverage: 120})
	assert.Error(t, err)
}

func TestAggregateWeightingScenario(t *testing.T) {
	campaigns := []models.Campaign{
		campaignWithDeltas("A", 1, 1, 1, 10),
		campaignWithDeltas("B", 1, 1, 10, 10),
	}

	pooled, err := Aggregate(campaigns, Filter{}, Pooled)
	require.NoError(t, err)
	average, err := Aggregate(campaigns, Filter{}, PercentileAverage)
	require.NoError(t, err)

	assert.Equal(t, Pooled, pooled.Headline.Weighting)
	assert.Equal(t, PercentileAverage, average.Headline.Weighting)
	assert.Equal(t, 8, pooled.Headline.Records)
	assert.Equal(t, 8, average.Headline.Records)

	// Pooled: 1 reaches 5/8 = 62.5%, so the median is 1.
	assert.Equal(t, Float(1), pooled.Headline.P50)
	// Average: A median 1 (75%), B median 1 (exactly 50%, earliest day wins).
	assert.Equal(t, Float(1), average.Headline.P50)
	assert.Equal(t, Days(1), average.Campaigns[1].Percentiles.P50)

	// Both policies see the same per-campaign rows and pooled distribution.
	assert.Equal(t, pooled.Campaigns, average.Campaigns)
	assert.Equal(t, pooled.Distribution, average.Distribution)
}

func TestAggregateWeightingDiverges(t *testing.T) {
	campaigns := []models.Campaign{
		campaignWithDeltas("A", 1, 1, 1, 10),
		campaignWithDeltas("B", 10, 10, 10, 1),
	}

	pooled, err := Aggregate(campaigns, Filter{}, Pooled)
	require.NoError(t, err)
	average, err := Aggregate(campaigns, Filter{}, PercentileAverage)
	require.NoError(t, err)

	assert.Equal(t, Float(1), pooled.Headline.P50)
	assert.Equal(t, Float(5.5), average.Headline.P50)
	assert.NotEqual(t, pooled.Headline.P50, average.Headline.P50)
}

func TestAggregateLargeCampaignDominatesPooled(t *testing.T) {
	large := make([]int, 99)
	for i := range large {
		large[i] = 2
	}
	campaigns := []models.Campaign{
		campaignWithDeltas("Large", large...),
		campaignWithDeltas("Small", 30),
	}

	pooled, err := Aggregate(campaigns, Filter{}, Pooled)
	require.NoError(t, err)
	average, err := Aggregate(campaigns, Filter{}, PercentileAverage)
	require.NoError(t, err)

	assert.Equal(t, Float(2), pooled.Headline.P95)
	assert.Equal(t, Float(16), average.Headline.P95)
}

func TestAggregateCampaignWithoutData(t *testing.T) {
	campaigns := []models.Campaign{
		campaignWithDeltas("A", 2, 4),
		campaignWithDeltas("Empty", -3, -1),
		campaignWithDeltas("B", 6, 8),
	}
	filter := Filter{ExcludeNegative: true}

	average, err := Aggregate(campaigns, filter, PercentileAverage)
	require.NoError(t, err)
	require.Len(t, average.Campaigns, 3)

	empty := average.Campaigns[1]
	assert.Equal(t, "Empty", empty.Name)
	assert.False(t, empty.HasData())
	assert.False(t, empty.Percentiles.P50.Valid)

	assert.Equal(t, 2, average.Headline.Campaigns)
	assert.Equal(t, Float(4), average.Headline.P50) // mean of 2 and 6

	pooled, err := Aggregate(campaigns, filter, Pooled)
	require.NoError(t, err)
	assert.Equal(t, 4, pooled.Distribution.Total)
	assert.Equal(t, 2, pooled.Headline.Campaigns)
}

func TestAggregateAllEmpty(t *testing.T) {
	campaigns := []models.Campaign{campaignWithDeltas("A", -1)}
	for _, w := range []Weighting{Pooled, PercentileAverage} {
		res, err := Aggregate(campaigns, Filter{ExcludeNegative: true}, w)
		require.NoError(t, err)
		assert.True(t, res.Distribution.Empty())
		assert.False(t, res.Headline.P50.Valid)
		assert.Equal(t, 0, res.Headline.Campaigns)
	}
}

func TestAggregateUnknownWeighting(t *testing.T) {
	_, err := Aggregate(nil, Filter{}, Weighting("median_of_medians"))
	assert.Error(t, err)
}

func TestParseWeighting(t *testing.T) {
	w, err := ParseWeighting(" Pooled ")
	require.NoError(t, err)
	assert.Equal(t, Pooled, w)

	w, err = ParseWeighting("percentile_average")
	require.NoError(t, err)
	assert.Equal(t, PercentileAverage, w)

	_, err = ParseWeighting("weighted")
	assert.Error(t, err)
}

func TestNullJSON(t *testing.T) {
	data, err := json.Marshal(Percentiles{P50: Days(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p50":3,"p90":null,"p95":null,"p99":null}`, string(data))

	var p Percentiles
	require.NoError(t, json.Unmarshal(data, &p))
	assert.Equal(t, Days(3), p.P50)
	assert.False(t, p.P90.Valid)

	data, err = json.Marshal(Headline{Weighting: Pooled, P95: Float(2.5)})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"p95":2.5`)
	assert.Contains(t, string(data), `"p50":null`)
}
