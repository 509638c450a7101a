// Package report renders analysis results for people: a plain-text report,
// the short summary for internal communication, and JSON and XLSX exports.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
)

// Summary is the short text handed to colleagues planning the next mailing.
// It is shared by the text report, the exports and the Telegram notifier.
type Summary struct {
	Subject     string             `json:"subject"`            // File name or "N campaigns"
	DayZero     string             `json:"day_zero,omitempty"` // YYYY-MM-DD, single campaign only
	Weighting   string             `json:"weighting,omitempty"`
	Filter      analysis.Filter    `json:"filter"`
	Records     int                `json:"records"`
	P50         analysis.NullFloat `json:"p50"`
	P95         analysis.NullFloat `json:"p95"`
	P99         analysis.NullFloat `json:"p99"`
	SmallSample bool               `json:"small_sample"`
	MinSample   int                `json:"min_sample_size"`
}

// CampaignSummary builds the summary of a single-campaign analysis.
func CampaignSummary(a *analysis.CampaignAnalysis) Summary {
	return Summary{
		Subject:     a.Campaign.File,
		DayZero:     a.Campaign.DayZero.Format("2006-01-02"),
		Filter:      a.Filter,
		Records:     a.Used,
		P50:         a.Percentiles.P50.AsFloat(),
		P95:         a.Percentiles.P95.AsFloat(),
		P99:         a.Percentiles.P99.AsFloat(),
		SmallSample: a.SmallSample,
		MinSample:   a.View.MinSampleSize,
	}
}

// AggregateSummary builds the summary of an aggregate from its headline.
func AggregateSummary(r *analysis.AggregateResult, view analysis.View) Summary {
	return Summary{
		Subject:     fmt.Sprintf("%d campaigns", len(r.Campaigns)),
		Weighting:   r.Headline.Weighting.Label(),
		Filter:      r.Filter,
		Records:     r.Headline.Records,
		P50:         r.Headline.P50,
		P95:         r.Headline.P95,
		P99:         r.Headline.P99,
		SmallSample: r.Headline.Records < view.MinSampleSize,
		MinSample:   view.MinSampleSize,
	}
}

// ReasonInfo describes the reason filter, or "" when all reasons are used.
func (s Summary) ReasonInfo() string {
	if len(s.Filter.Reasons) == 0 {
		return ""
	}
	return fmt.Sprintf("reason filter: '%s'", strings.Join(s.Filter.Reasons, "', '"))
}

// Recommendation returns the waiting-time advice based on the 95th percentile.
func (s Summary) Recommendation() string {
	if !s.P95.Valid {
		return "No recommendation: no redresses match the current filters."
	}
	subject := "this mailing"
	if s.DayZero == "" {
		subject = "these mailings"
	}
	return fmt.Sprintf("For %s, you should wait at least %s after the official mailing date "+
		"if you want to exclude approximately 95%% of all undeliverable addresses from the next mailing list.",
		subject, FormatDays(s.P95))
}

// Lines renders the summary as plain text lines.
func (s Summary) Lines() []string {
	lines := []string{fmt.Sprintf("File: %s", s.Subject)}
	if s.DayZero != "" {
		lines = append(lines, fmt.Sprintf("Official mailing date (Day 0): %s", s.DayZero))
	}
	if s.Weighting != "" {
		lines = append(lines, fmt.Sprintf("Weighting: %s", s.Weighting))
	}

	used := "Number of valid redresses used in this analysis"
	if info := s.ReasonInfo(); info != "" {
		used += " (" + info + ")"
	}
	lines = append(lines,
		fmt.Sprintf("%s: %s", used, FormatCount(s.Records)),
		"",
		fmt.Sprintf("- 50%% of all redresses are captured within %s", FormatDays(s.P50)),
		fmt.Sprintf("- 95%% of all redresses are captured within %s", FormatDays(s.P95)),
		fmt.Sprintf("- 99%% of all redresses are captured within %s", FormatDays(s.P99)),
		"",
		"Recommendation:",
		s.Recommendation(),
	)
	if s.SmallSample {
		lines = append(lines, "", SmallSampleWarning(s.Records, s.MinSample))
	}
	return lines
}

// SmallSampleWarning is shown when too few records back the percentiles.
func SmallSampleWarning(records, minimum int) string {
	return fmt.Sprintf("Warning: only %s redresses after filtering (recommended: at least %d). "+
		"Percentiles may be unreliable.", FormatCount(records), minimum)
}

// FormatDays renders a day value, keeping one decimal for averaged percentiles.
func FormatDays(v analysis.NullFloat) string {
	if !v.Valid {
		return "no data"
	}
	unit := "days"
	if v.Value == 1 {
		unit = "day"
	}
	if v.Value == math.Trunc(v.Value) {
		return fmt.Sprintf("%d %s", int(v.Value), unit)
	}
	return fmt.Sprintf("%.1f %s", v.Value, unit)
}

// FormatPct renders a coverage percentage rounded to two decimals.
func FormatPct(v analysis.NullFloat) string {
	if !v.Valid {
		return "no data"
	}
	return fmt.Sprintf("%.2f%%", v.Value)
}
