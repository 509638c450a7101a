package analysis

import (
	"fmt"
	"sort"
)

// StandardTargets are the coverage percentages reported as summary percentiles.
var StandardTargets = []float64{50, 90, 95, 99}

// DayForCoverage returns the smallest delta whose cumulative percentage reaches target.
// It reports false when the table is empty or no entry reaches target.
func (t *Table) DayForCoverage(target float64) (int, bool) {
	if t.Empty() {
		return 0, false
	}
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].CumulativePct >= target
	})
	if i == len(t.Entries) {
		return 0, false
	}
	return t.Entries[i].Delta, true
}

// CoverageForDay returns the cumulative percentage of records with delta <= n.
// Coverage is 0 below the smallest delta and saturates at 100 above the largest.
// It reports false only for an empty table.
func (t *Table) CoverageForDay(n int) (float64, bool) {
	if t.Empty() {
		return 0, false
	}
	// First entry strictly above n; the one before it is the largest delta <= n.
	i := sort.Search(len(t.Entries), func(i int) bool {
		return t.Entries[i].Delta > n
	})
	if i == 0 {
		return 0, true
	}
	return t.Entries[i-1].CumulativePct, true
}

// Percentiles holds the standard nearest-rank percentiles of a distribution.
type Percentiles struct {
	P50 NullDays `json:"p50"`
	P90 NullDays `json:"p90"`
	P95 NullDays `json:"p95"`
	P99 NullDays `json:"p99"`
}

// Percentiles computes P50, P90, P95 and P99 via DayForCoverage.
func (t *Table) Percentiles() Percentiles {
	at := func(target float64) NullDays {
		d, ok := t.DayForCoverage(target)
		if !ok {
			return NullDays{}
		}
		return Days(d)
	}
	return Percentiles{
		P50: at(50),
		P90: at(90),
		P95: at(95),
		P99: at(99),
	}
}

// LabeledDays is one labeled percentile for summary reporting.
type LabeledDays struct {
	Label  string   `json:"label"`
	Target float64  `json:"target"`
	Days   NullDays `json:"days"`
}

// Labeled returns the percentiles in StandardTargets order.
func (p Percentiles) Labeled() []LabeledDays {
	values := []NullDays{p.P50, p.P90, p.P95, p.P99}
	out := make([]LabeledDays, len(StandardTargets))
	for i, target := range StandardTargets {
		out[i] = LabeledDays{Label: percentileLabel(target), Target: target, Days: values[i]}
	}
	return out
}

func percentileLabel(target float64) string {
	if target == 50 {
		return "Median (50%)"
	}
	return fmt.Sprintf("%gth percentile", target)
}
