package models

import (
	"fmt"
	"strings"
)

// Required workbook labels.
const (
	AnchorLabel  = "OFFICIAL_MAILING_DATE"
	ReasonColumn = "GRUND_UNZUSTELLBARKEIT"
	DateColumn   = "REDRESSENERFASSUNG_DATUM"
)

// MissingAnchorError is returned when the anchor cell does not carry the
// OFFICIAL_MAILING_DATE label. The campaign needs a manual Day 0 override.
type MissingAnchorError struct {
	File  string
	Found string
}

func (e *MissingAnchorError) Error() string {
	return fmt.Sprintf("%s: anchor cell does not contain %q (found: %q)", e.File, AnchorLabel, e.Found)
}

// InvalidDateError is returned when a date value cannot be parsed.
// Row is the 1-based sheet row, or 0 when the value is not tied to a row.
type InvalidDateError struct {
	Field string
	Value string
	Row   int
}

func (e *InvalidDateError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("invalid %s %q in row %d", e.Field, e.Value, e.Row)
	}
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

// MissingColumnError is returned when required columns are absent from the header row.
type MissingColumnError struct {
	File    string
	Missing []string
	Found   []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s (found: %s)",
		e.File, strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}
