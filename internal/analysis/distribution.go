package analysis

import (
	"sort"

	"github.com/aclements/go-moremath/stats"
)

// Entry is one distinct delta value in a distribution table.
type Entry struct {
	Delta           int     `json:"delta_days"`
	Count           int     `json:"count"`
	CumulativeCount int     `json:"cumulative_count"`
	CumulativePct   float64 `json:"cumulative_pct"`
}

// Table is a frequency and cumulative distribution of delta days,
// ordered by ascending delta. The zero value is an empty table.
type Table struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// BuildDistribution groups deltas by value and computes the running
// percentage of records at or below each distinct delta.
func BuildDistribution(deltas []int) *Table {
	counts := make(map[int]int, len(deltas))
	for _, d := range deltas {
		counts[d]++
	}

	entries := make([]Entry, 0, len(counts))
	for d, n := range counts {
		entries = append(entries, Entry{Delta: d, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Delta < entries[j].Delta
	})

	total := len(deltas)
	cum := 0
	for i := range entries {
		cum += entries[i].Count
		entries[i].CumulativeCount = cum
		// cum*100/total keeps integer-exact percentages exact (e.g. 19/20 -> 95).
		entries[i].CumulativePct = float64(cum) * 100 / float64(total)
	}

	return &Table{Entries: entries, Total: total}
}

// Empty reports whether the table holds no records.
func (t *Table) Empty() bool {
	return t == nil || len(t.Entries) == 0
}

// Min returns the smallest delta present.
func (t *Table) Min() (int, bool) {
	if t.Empty() {
		return 0, false
	}
	return t.Entries[0].Delta, true
}

// Max returns the largest delta present.
func (t *Table) Max() (int, bool) {
	if t.Empty() {
		return 0, false
	}
	return t.Entries[len(t.Entries)-1].Delta, true
}

// Stats holds summary statistics of the deltas behind a table.
type Stats struct {
	Count int       `json:"count"`
	Mean  NullFloat `json:"mean"`
	Min   NullDays  `json:"min"`
	Max   NullDays  `json:"max"`
}

// Stats computes count, mean, min and max of the underlying deltas.
func (t *Table) Stats() Stats {
	if t.Empty() {
		return Stats{}
	}

	xs := make([]float64, 0, t.Total)
	for _, e := range t.Entries {
		for i := 0; i < e.Count; i++ {
			xs = append(xs, float64(e.Delta))
		}
	}

	lo, _ := t.Min()
	hi, _ := t.Max()
	return Stats{
		Count: t.Total,
		Mean:  Float(stats.Mean(xs)),
		Min:   Days(lo),
		Max:   Days(hi),
	}
}
