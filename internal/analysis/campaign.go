package analysis

import (
	"errors"
	"math"

	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// View holds the per-call parameters of the interactive business questions.
// It is passed by value into every computation; nothing reads ambient state.
type View struct {
	TargetCoverage float64 `json:"target_coverage"` // Percent in (0, 100]
	WaitDays       int     `json:"wait_days"`
	MinSampleSize  int     `json:"min_sample_size"`
}

// DefaultView is a 95% target, 10 days of waiting and a warning below 30 records.
func DefaultView() View {
	return View{TargetCoverage: 95, WaitDays: 10, MinSampleSize: 30}
}

// Validate checks that all view fields are valid.
func (v View) Validate() error {
	if math.IsNaN(v.TargetCoverage) || v.TargetCoverage <= 0 || v.TargetCoverage > 100 {
		return errors.New("target coverage must be in (0, 100]")
	}
	if v.MinSampleSize < 0 {
		return errors.New("min sample size must not be negative")
	}
	return nil
}

// CampaignAnalysis is the single-campaign result consumed by reports and the API.
type CampaignAnalysis struct {
	Campaign    *models.Campaign `json:"campaign"`
	Filter      Filter           `json:"filter"`
	View        View             `json:"view"`
	RowsRead    int              `json:"rows_read"`    // Data rows in the workbook
	ValidDates  int              `json:"valid_dates"`  // Rows with a parseable redress date
	Used        int              `json:"records_used"` // Records left after filtering
	Reasons     []string         `json:"reasons"`
	Table       *Table           `json:"distribution"`
	Percentiles Percentiles      `json:"percentiles"`
	Stats       Stats            `json:"stats"`
	NeededDays  NullDays         `json:"needed_days"` // Day for View.TargetCoverage
	Coverage    NullFloat        `json:"coverage"`    // Coverage after View.WaitDays
	SmallSample bool             `json:"small_sample"`
}

// HasData reports whether any records remain after filtering.
func (a *CampaignAnalysis) HasData() bool {
	return !a.Table.Empty()
}

// AnalyzeCampaign runs the single-campaign path: deltas, filter, distribution, quantiles.
func AnalyzeCampaign(c *models.Campaign, filter Filter, view View) (*CampaignAnalysis, error) {
	if err := view.Validate(); err != nil {
		return nil, err
	}
	deltas, err := FilteredDeltas(c, filter)
	if err != nil {
		return nil, err
	}

	table := BuildDistribution(deltas)
	a := &CampaignAnalysis{
		Campaign:    c,
		Filter:      filter,
		View:        view,
		RowsRead:    len(c.Events) + c.SkippedRows,
		ValidDates:  len(c.Events),
		Used:        table.Total,
		Reasons:     c.Reasons(),
		Table:       table,
		Percentiles: table.Percentiles(),
		Stats:       table.Stats(),
		SmallSample: table.Total < view.MinSampleSize,
	}
	if d, ok := table.DayForCoverage(view.TargetCoverage); ok {
		a.NeededDays = Days(d)
	}
	if pct, ok := table.CoverageForDay(view.WaitDays); ok {
		a.Coverage = Float(pct)
	}
	return a, nil
}
