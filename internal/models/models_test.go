package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCampaignValidate(t *testing.T) {
	dayZero := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		campaign Campaign
		wantErr  bool
	}{
		{
			name: "valid campaign",
			campaign: Campaign{
				Name:         "Spring",
				File:         "Spring_2025-03.xlsx",
				DayZero:      dayZero,
				AnchorSource: AnchorFromFile,
				Events: []Event{
					{Reason: "Moved", Date: dayZero.AddDate(0, 0, 3)},
				},
			},
			wantErr: false,
		},
		{
			name: "empty name",
			campaign: Campaign{
				DayZero:      dayZero,
				AnchorSource: AnchorFromFile,
			},
			wantErr: true,
		},
		{
			name: "missing day zero",
			campaign: Campaign{
				Name:         "Spring",
				AnchorSource: AnchorFromFile,
			},
			wantErr: true,
		},
		{
			name: "unknown anchor source",
			campaign: Campaign{
				Name:         "Spring",
				DayZero:      dayZero,
				AnchorSource: "guess",
			},
			wantErr: true,
		},
		{
			name: "event without date",
			campaign: Campaign{
				Name:         "Spring",
				DayZero:      dayZero,
				AnchorSource: AnchorFromOverride,
				Events:       []Event{{Reason: "Moved"}},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.campaign.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Campaign.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCampaignReasons(t *testing.T) {
	d := time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC)
	c := Campaign{Events: []Event{
		{Reason: "Unknown", Date: d},
		{Reason: "", Date: d},
		{Reason: "Moved", Date: d},
		{Reason: "Deceased", Date: d},
		{Reason: "Unknown", Date: d},
	}}

	got := c.Reasons()
	want := []string{"Deceased", "Moved", "Unknown"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Reasons() = %v, want %v", got, want)
	}
}

func TestDateOnly(t *testing.T) {
	berlin := time.FixedZone("CET", 3600)
	in := time.Date(2025, 3, 15, 23, 30, 0, 0, berlin)

	got := DateOnly(in)
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateOnly(%v) = %v, want %v", in, got, want)
	}
	if !DateOnly(time.Time{}).IsZero() {
		t.Error("DateOnly(zero) should stay zero")
	}
}

func TestErrorMessages(t *testing.T) {
	var err error = &MissingColumnError{
		File:    "Spring_2025-03.xlsx",
		Missing: []string{DateColumn},
		Found:   []string{ReasonColumn, "PLZ"},
	}
	if !strings.Contains(err.Error(), DateColumn) {
		t.Errorf("missing column error should name the column: %v", err)
	}

	var mce *MissingColumnError
	if !errors.As(err, &mce) {
		t.Fatal("errors.As should match *MissingColumnError")
	}

	anchor := &MissingAnchorError{File: "x.xlsx", Found: "DATE"}
	if !strings.Contains(anchor.Error(), AnchorLabel) {
		t.Errorf("anchor error should name the label: %v", anchor)
	}

	rowErr := &InvalidDateError{Field: DateColumn, Value: "soon", Row: 7}
	if !strings.Contains(rowErr.Error(), "row 7") {
		t.Errorf("row error should carry the row: %v", rowErr)
	}
}
