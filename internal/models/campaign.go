// Package models defines the core domain entities for the redress analyzer.
// These models represent mailing campaigns, the redress events recorded
// against them and the delta records derived from both.
//
// Terminology:
//   - Campaign: one mailing batch, identified by name and month, with its own Day 0.
//   - Redress: an undeliverable-mailing event with a reason and a capture date.
//   - Delta: signed number of calendar days from Day 0 to a redress capture date.
package models

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// Anchor sources for a campaign's Day 0.
const (
	AnchorFromFile     = "file"
	AnchorFromOverride = "override"
)

// Event is a single redress occurrence read from a campaign workbook.
type Event struct {
	Reason string    `json:"reason"`
	Date   time.Time `json:"date"`
}

// Campaign is a read-only snapshot of one mailing batch and its redress events.
// Campaigns are loaded once per session and never mutated afterwards.
type Campaign struct {
	Name         string    `json:"name"`
	File         string    `json:"file"`
	Month        time.Time `json:"month"`         // First day of the YYYY-MM filename token; zero if absent
	DayZero      time.Time `json:"day_zero"`      // Official mailing date
	AnchorSource string    `json:"anchor_source"` // "file" or "override"
	Events       []Event   `json:"-"`
	SkippedRows  int       `json:"skipped_rows"` // Rows dropped for an unparseable event date
}

// HasMonth reports whether the campaign's filename carried a YYYY-MM token.
func (c *Campaign) HasMonth() bool {
	return !c.Month.IsZero()
}

// Validate checks that all campaign fields are valid.
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return errors.New("campaign name must not be empty")
	}
	if c.DayZero.IsZero() {
		return errors.New("campaign day zero must be set")
	}
	if c.AnchorSource != AnchorFromFile && c.AnchorSource != AnchorFromOverride {
		return fmt.Errorf("anchor source must be %q or %q", AnchorFromFile, AnchorFromOverride)
	}
	if c.SkippedRows < 0 {
		return errors.New("skipped rows must not be negative")
	}
	for i, e := range c.Events {
		if e.Date.IsZero() {
			return fmt.Errorf("event %d has no date", i)
		}
	}
	return nil
}

// Reasons returns the distinct non-empty reasons in alphabetical order.
func (c *Campaign) Reasons() []string {
	seen := make(map[string]bool)
	var reasons []string
	for _, e := range c.Events {
		if e.Reason == "" || seen[e.Reason] {
			continue
		}
		seen[e.Reason] = true
		reasons = append(reasons, e.Reason)
	}
	sort.Strings(reasons)
	return reasons
}

// DateOnly returns t's calendar date as midnight UTC.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
