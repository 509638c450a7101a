package report

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

// Sheet names of the XLSX report.
const (
	SheetSummary      = "Summary"
	SheetDistribution = "Distribution"
	SheetCampaigns    = "Campaigns"
)

// WriteXLSX renders the document as a workbook and writes it atomically.
func WriteXLSX(path string, doc *Document) error {
	f, err := BuildWorkbook(doc)
	if err != nil {
		return err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write XLSX report: %w", err)
	}
	return nil
}

// BuildWorkbook lays out the Summary and Distribution sheets, with frequency
// and cumulative charts, plus a Campaigns sheet for aggregates.
func BuildWorkbook(doc *Document) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeSummarySheet(f, doc); err != nil {
		f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := writeDistributionSheet(f, doc.Distribution()); err != nil {
		f.Close()
		return nil, fmt.Errorf("distribution sheet: %w", err)
	}
	if doc.Aggregate != nil {
		if err := writeCampaignsSheet(f, doc.Aggregate.Campaigns); err != nil {
			f.Close()
			return nil, fmt.Errorf("campaigns sheet: %w", err)
		}
	}
	return f, nil
}

// setRow writes values into consecutive cells starting at column 1 of row.
func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// nullable returns nil for missing values so the cell stays empty.
func nullable(v analysis.NullFloat) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Value
}

func nullableDays(v analysis.NullDays) interface{} {
	if !v.Valid {
		return nil
	}
	return v.Value
}

func writeSummarySheet(f *excelize.File, doc *Document) error {
	s := doc.Summary
	rows := [][]interface{}{
		{"Run ID", doc.RunID},
		{"Generated at", doc.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Report", doc.Kind},
		{"File", s.Subject},
	}
	if s.DayZero != "" {
		rows = append(rows, []interface{}{"Official mailing date (Day 0)", s.DayZero})
	}
	if s.Weighting != "" {
		rows = append(rows, []interface{}{"Weighting", s.Weighting})
	}
	reasons := "(All reasons)"
	if len(s.Filter.Reasons) > 0 {
		reasons = strings.Join(s.Filter.Reasons, ", ")
	}
	rows = append(rows,
		[]interface{}{"Reason filter", reasons},
		[]interface{}{"Exclude negative deltas", s.Filter.ExcludeNegative},
		[]interface{}{"Records used", s.Records},
		[]interface{}{"Median (days)", nullable(s.P50)},
		[]interface{}{"95th percentile (days)", nullable(s.P95)},
		[]interface{}{"99th percentile (days)", nullable(s.P99)},
	)
	if a := doc.Campaign; a != nil {
		rows = append(rows,
			[]interface{}{fmt.Sprintf("Days for %g%% coverage", a.View.TargetCoverage), nullableDays(a.NeededDays)},
			[]interface{}{fmt.Sprintf("Coverage after %d days (%%)", a.View.WaitDays), nullable(a.Coverage)},
		)
	}
	rows = append(rows, []interface{}{"Recommendation", s.Recommendation()})
	if s.SmallSample {
		rows = append(rows, []interface{}{"Warning", SmallSampleWarning(s.Records, s.MinSample)})
	}

	for i, r := range rows {
		if err := setRow(f, SheetSummary, i+1, r...); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetSummary, "A", "A", 32)
}

func writeDistributionSheet(f *excelize.File, t *analysis.Table) error {
	if _, err := f.NewSheet(SheetDistribution); err != nil {
		return err
	}
	if err := setRow(f, SheetDistribution, 1, "Days until redress", "Count", "Cumulative", "Cumulative (%)"); err != nil {
		return err
	}
	if t.Empty() {
		return nil
	}

	for i, e := range t.Entries {
		if err := setRow(f, SheetDistribution, i+2, e.Delta, e.Count, e.CumulativeCount, e.CumulativePct); err != nil {
			return err
		}
	}

	last := len(t.Entries) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", SheetDistribution, last)

	if err := f.AddChart(SheetDistribution, "F2", &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       SheetDistribution + "!$B$1",
			Categories: categories,
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", SheetDistribution, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Frequency by days since official mailing date"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return fmt.Errorf("frequency chart: %w", err)
	}

	if err := f.AddChart(SheetDistribution, "F20", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       SheetDistribution + "!$D$1",
			Categories: categories,
			Values:     fmt.Sprintf("%s!$D$2:$D$%d", SheetDistribution, last),
		}},
		Title:  []excelize.RichTextRun{{Text: "Cumulative coverage (%)"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return fmt.Errorf("cumulative chart: %w", err)
	}
	return nil
}

func writeCampaignsSheet(f *excelize.File, summaries []analysis.CampaignSummary) error {
	if _, err := f.NewSheet(SheetCampaigns); err != nil {
		return err
	}
	if err := setRow(f, SheetCampaigns, 1, "Campaign", "File", "Day 0", "Records", "P50", "P90", "P95", "P99"); err != nil {
		return err
	}
	for i, s := range summaries {
		p := s.Percentiles
		if err := setRow(f, SheetCampaigns, i+2,
			s.Name, s.File, s.DayZero.Format("2006-01-02"), s.Records,
			nullableDays(p.P50), nullableDays(p.P90), nullableDays(p.P95), nullableDays(p.P99),
		); err != nil {
			return err
		}
	}
	return f.SetColWidth(SheetCampaigns, "A", "B", 24)
}
