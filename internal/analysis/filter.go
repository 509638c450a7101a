package analysis

import (
	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// Filter selects which delta records take part in an analysis.
// The same Filter is applied to every campaign of an aggregate.
type Filter struct {
	Reasons         []string `json:"reasons,omitempty"` // Empty means all reasons
	ExcludeNegative bool     `json:"exclude_negative"`
}

// Keep reports whether a single record passes the filter.
func (f Filter) Keep(r models.DeltaRecord) bool {
	if f.ExcludeNegative && r.Delta < 0 {
		return false
	}
	if len(f.Reasons) == 0 {
		return true
	}
	for _, reason := range f.Reasons {
		if r.Reason == reason {
			return true
		}
	}
	return false
}

// Apply returns the deltas of the records that pass the filter, in input order.
func (f Filter) Apply(records []models.DeltaRecord) []int {
	deltas := make([]int, 0, len(records))
	for _, r := range records {
		if f.Keep(r) {
			deltas = append(deltas, r.Delta)
		}
	}
	return deltas
}

// FilteredDeltas computes a campaign's deltas and applies f to them.
func FilteredDeltas(c *models.Campaign, f Filter) ([]int, error) {
	records, err := CampaignDeltas(c)
	if err != nil {
		return nil, err
	}
	return f.Apply(records), nil
}
