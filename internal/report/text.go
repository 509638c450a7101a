package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

const ruleWidth = 80

// FormatCount renders a record count with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(title))
}

func filterLine(f analysis.Filter) string {
	reasons := "all reasons"
	if len(f.Reasons) > 0 {
		reasons = "reasons " + strings.Join(f.Reasons, ", ")
	}
	negatives := "negative deltas included"
	if f.ExcludeNegative {
		negatives = "negative deltas excluded"
	}
	return reasons + "; " + negatives
}

// WriteCatalog prints the loaded campaigns and the files that failed to load.
func WriteCatalog(w io.Writer, entries []storage.Entry, failures []*ingest.FileError) {
	fmt.Fprintf(w, "Campaigns (%d, newest first):\n", len(entries))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  KEY\tDAY 0\tANCHOR\tEVENTS\tSKIPPED")
	for _, e := range entries {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%d\n", e.Key, e.DayZero, e.AnchorSource, FormatCount(e.Events), e.SkippedRows)
	}
	tw.Flush()

	if len(failures) > 0 {
		fmt.Fprintf(w, "\nFiles that could not be loaded (%d):\n", len(failures))
		for _, f := range failures {
			fmt.Fprintf(w, "  %s: %v\n", f.File, f.Err)
		}
	}
}

// WriteCampaign prints the full single-campaign report.
func WriteCampaign(w io.Writer, a *analysis.CampaignAnalysis) {
	c := a.Campaign
	fmt.Fprintf(w, "REDRESS ANALYSIS: %s\n", c.File)
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "Official mailing date (Day 0): %s (%s)\n", c.DayZero.Format("2006-01-02"), c.AnchorSource)
	fmt.Fprintf(w, "Rows read: %s, valid redress dates: %s, used in analysis: %s\n",
		FormatCount(a.RowsRead), FormatCount(a.ValidDates), FormatCount(a.Used))
	fmt.Fprintf(w, "Filter: %s\n", filterLine(a.Filter))
	if len(a.Reasons) > 0 {
		fmt.Fprintf(w, "Available reasons: %s\n", strings.Join(a.Reasons, ", "))
	}

	if !a.HasData() {
		fmt.Fprintln(w, "\nNo redresses match the current filters. Nothing to analyze.")
		return
	}
	if a.SmallSample {
		fmt.Fprintf(w, "\n%s\n", SmallSampleWarning(a.Used, a.View.MinSampleSize))
	}

	heading(w, "Coverage at a glance")
	fmt.Fprintf(w, "  Median (days): %s\n", a.Percentiles.P50)
	fmt.Fprintf(w, "  95th percentile (days): %s\n", a.Percentiles.P95)
	fmt.Fprintf(w, "  99th percentile (days): %s\n", a.Percentiles.P99)

	heading(w, "Summary statistics")
	writeStats(w, a.Stats, a.Percentiles)

	heading(w, "Business questions")
	if a.NeededDays.Valid {
		fmt.Fprintf(w, "  To reach approximately %g%% of all redresses, you should wait at least %s days after the official mailing date.\n",
			a.View.TargetCoverage, a.NeededDays)
	} else {
		fmt.Fprintf(w, "  A coverage of %g%% is not reached by the recorded redresses.\n", a.View.TargetCoverage)
	}
	fmt.Fprintf(w, "  If you wait %d days, you will capture approximately %s of all redresses.\n",
		a.View.WaitDays, FormatPct(a.Coverage))

	heading(w, "Distribution")
	writeTable(w, a.Table)

	heading(w, "Summary for internal communication")
	writeLines(w, CampaignSummary(a).Lines())
	fmt.Fprintln(w, "\nNote: values are based on the current file, filters and settings.")
}

// WriteAggregate prints the multi-campaign report.
func WriteAggregate(w io.Writer, r *analysis.AggregateResult, view analysis.View) {
	fmt.Fprintf(w, "REDRESS ANALYSIS: %d campaigns\n", len(r.Campaigns))
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "Weighting: %s\n", r.Headline.Weighting.Label())
	fmt.Fprintf(w, "Filter: %s\n", filterLine(r.Filter))
	fmt.Fprintf(w, "Campaigns with data: %d of %d, records: %s\n",
		r.Headline.Campaigns, len(r.Campaigns), FormatCount(r.Headline.Records))

	if r.Headline.Records == 0 {
		fmt.Fprintln(w, "\nNo redresses match the current filters. Nothing to analyze.")
		return
	}
	if r.Headline.Records < view.MinSampleSize {
		fmt.Fprintf(w, "\n%s\n", SmallSampleWarning(r.Headline.Records, view.MinSampleSize))
	}

	heading(w, "Headline percentiles ("+r.Headline.Weighting.Label()+")")
	fmt.Fprintf(w, "  Median (50%%): %s\n", FormatDays(r.Headline.P50))
	fmt.Fprintf(w, "  90th percentile: %s\n", FormatDays(r.Headline.P90))
	fmt.Fprintf(w, "  95th percentile: %s\n", FormatDays(r.Headline.P95))
	fmt.Fprintf(w, "  99th percentile: %s\n", FormatDays(r.Headline.P99))

	heading(w, "Per campaign")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CAMPAIGN\tDAY 0\tRECORDS\tP50\tP90\tP95\tP99")
	for _, s := range r.Campaigns {
		p := s.Percentiles
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.File, s.DayZero.Format("2006-01-02"),
			FormatCount(s.Records), p.P50, p.P90, p.P95, p.P99)
	}
	tw.Flush()

	heading(w, "Pooled distribution")
	writeTable(w, r.Distribution)

	heading(w, "Summary for internal communication")
	writeLines(w, AggregateSummary(r, view).Lines())
}

func writeStats(w io.Writer, s analysis.Stats, p analysis.Percentiles) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Count\t%s\n", FormatCount(s.Count))
	mean := "no data"
	if s.Mean.Valid {
		mean = fmt.Sprintf("%.2f", s.Mean.Value)
	}
	fmt.Fprintf(tw, "  Mean\t%s\n", mean)
	fmt.Fprintf(tw, "  Min\t%s\n", s.Min)
	for _, l := range p.Labeled() {
		fmt.Fprintf(tw, "  %s\t%s\n", l.Label, l.Days)
	}
	fmt.Fprintf(tw, "  Max\t%s\n", s.Max)
	tw.Flush()
}

func writeTable(w io.Writer, t *analysis.Table) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Days until redress\tCount\tCumulative\tCumulative (%)\t")
	if !t.Empty() {
		for _, e := range t.Entries {
			fmt.Fprintf(tw, "%d\t%d\t%d\t%.2f\t\n", e.Delta, e.Count, e.CumulativeCount, e.CumulativePct)
		}
	}
	tw.Flush()
}

func writeLines(w io.Writer, lines []string) {
	for _, l := range lines {
		if l == "" {
			fmt.Fprintln(w)
			continue
		}
		fmt.Fprintf(w, "  %s\n", l)
	}
}
