package ingest

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// Workbook layout: anchor label and Day 0 in the first row, column headers in
// row 4, data from row 5 on. Indices are 0-based.
const (
	anchorRow = 0
	headerRow = 3
	firstData = 4
)

// dateLayouts are the textual date formats accepted in addition to Excel serials.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"02.01.2006",
	"2006/01/02",
}

// Excel serial 2958465 is 9999-12-31 in the 1900 date system. The 1904
// system counts from 1904-01-01, 1462 days later.
const (
	maxExcelSerial    = 2958465
	date1904EpochDays = 1462
)

// ReadWorkbook parses one campaign workbook. overrides maps file names to a
// manual Day 0; a configured override takes precedence over the anchor cell
// and makes a missing or invalid anchor non-fatal.
func ReadWorkbook(r io.Reader, file string, overrides map[string]time.Time) (*models.Campaign, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}
	date1904 := props.Date1904 != nil && *props.Date1904

	name, month, _ := ParseFilename(file)
	campaign := &models.Campaign{
		Name:  name,
		File:  path.Base(file),
		Month: month,
	}

	if override, ok := overrides[campaign.File]; ok {
		campaign.DayZero = models.DateOnly(override)
		campaign.AnchorSource = models.AnchorFromOverride
		logger.Debug("%s: using manual day 0 %s", campaign.File, campaign.DayZero.Format("2006-01-02"))
	} else {
		dayZero, err := readAnchor(rows, campaign.File, date1904)
		if err != nil {
			return nil, err
		}
		campaign.DayZero = dayZero
		campaign.AnchorSource = models.AnchorFromFile
	}

	if len(rows) <= headerRow {
		return nil, &models.MissingColumnError{
			File:    campaign.File,
			Missing: []string{models.ReasonColumn, models.DateColumn},
		}
	}
	reasonIdx, dateIdx, err := locateColumns(rows[headerRow], campaign.File)
	if err != nil {
		return nil, err
	}

	for i := firstData; i < len(rows); i++ {
		row := rows[i]
		reason := strings.TrimSpace(cell(row, reasonIdx))
		raw := strings.TrimSpace(cell(row, dateIdx))
		if reason == "" && raw == "" {
			continue
		}
		date, err := ParseCellDate(raw, date1904)
		if err != nil {
			campaign.SkippedRows++
			logger.Debug("%s: skipping row %d: %v", campaign.File, i+1,
				&models.InvalidDateError{Field: "redress date", Value: raw, Row: i + 1})
			continue
		}
		campaign.Events = append(campaign.Events, models.Event{Reason: reason, Date: date})
	}

	if err := campaign.Validate(); err != nil {
		return nil, fmt.Errorf("invalid campaign: %w", err)
	}
	return campaign, nil
}

func readAnchor(rows [][]string, file string, date1904 bool) (time.Time, error) {
	var first []string
	if len(rows) > anchorRow {
		first = rows[anchorRow]
	}
	label := strings.TrimSpace(cell(first, 0))
	if label != models.AnchorLabel {
		return time.Time{}, &models.MissingAnchorError{File: file, Found: label}
	}
	raw := strings.TrimSpace(cell(first, 1))
	d, err := ParseCellDate(raw, date1904)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", file, &models.InvalidDateError{Field: "official mailing date", Value: raw})
	}
	return models.DateOnly(d), nil
}

func locateColumns(header []string, file string) (reasonIdx, dateIdx int, err error) {
	reasonIdx, dateIdx = -1, -1
	found := make([]string, 0, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		found = append(found, h)
		switch h {
		case models.ReasonColumn:
			if reasonIdx < 0 {
				reasonIdx = i
			}
		case models.DateColumn:
			if dateIdx < 0 {
				dateIdx = i
			}
		}
	}

	var missing []string
	if reasonIdx < 0 {
		missing = append(missing, models.ReasonColumn)
	}
	if dateIdx < 0 {
		missing = append(missing, models.DateColumn)
	}
	if len(missing) > 0 {
		return 0, 0, &models.MissingColumnError{File: file, Missing: missing, Found: found}
	}
	return reasonIdx, dateIdx, nil
}

// cell returns row[i], or "" for cells past the end of a short row.
func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// ParseCellDate converts a raw cell value into a time. Numeric values are
// Excel serial dates in the workbook's date system (1904 when date1904 is set);
// strings are tried against the accepted layouts and keep their own offset so
// the calendar date is the one written in the cell.
func ParseCellDate(raw string, date1904 bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty date")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		upper := float64(maxExcelSerial)
		if date1904 {
			upper -= date1904EpochDays
		}
		if serial < 1 || serial > upper {
			return time.Time{}, fmt.Errorf("excel serial %v out of range", serial)
		}
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}
