// Package storage holds the loaded campaign catalog and writes report files.
//
// The catalog is an in-memory snapshot of all campaigns read from a source,
// together with the files that failed to load. Campaigns inside a snapshot are
// never mutated; a reload swaps in a whole new snapshot so concurrent readers
// always see a consistent view.
package storage

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// ErrNotFound is returned when no campaign matches a lookup key.
type ErrNotFound struct {
	Key string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("campaign not found: %s", e.Key)
}

// Entry is the listing view of one loaded campaign.
type Entry struct {
	Key          string    `json:"key"`
	Name         string    `json:"name"`
	File         string    `json:"file"`
	Month        string    `json:"month,omitempty"` // YYYY-MM
	DayZero      string    `json:"day_zero"`        // YYYY-MM-DD
	AnchorSource string    `json:"anchor_source"`
	Events       int       `json:"events"`
	SkippedRows  int       `json:"skipped_rows"`
	Reasons      []string  `json:"reasons"`
	LoadedAt     time.Time `json:"loaded_at"`
}

// Catalog provides thread-safe access to the current campaign snapshot
type Catalog struct {
	campaigns []models.Campaign
	index     map[string]int
	failures  []*ingest.FileError
	loadedAt  time.Time
	mu        sync.RWMutex
}

// New creates a Catalog from a load result.
func New(result *ingest.Result) *Catalog {
	c := &Catalog{}
	c.Replace(result)
	return c
}

// Replace swaps in a freshly loaded snapshot.
func (c *Catalog) Replace(result *ingest.Result) {
	campaigns := make([]models.Campaign, 0)
	var failures []*ingest.FileError
	if result != nil {
		campaigns = append(campaigns, result.Campaigns...)
		failures = append(failures, result.Failures...)
	}

	index := make(map[string]int, len(campaigns))
	for i := range campaigns {
		index[Key(&campaigns[i])] = i
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.campaigns = campaigns
	c.index = index
	c.failures = failures
	c.loadedAt = time.Now()
}

// Key identifies a campaign by its file stem, e.g. "Spring_2025-03".
// Campaign names alone can repeat across months.
func Key(c *models.Campaign) string {
	return strings.TrimSuffix(c.File, path.Ext(c.File))
}

// Get returns the campaign for a key or a full file name.
func (c *Catalog) Get(key string) (*models.Campaign, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	k := key
	if strings.EqualFold(path.Ext(key), ".xlsx") {
		k = strings.TrimSuffix(key, path.Ext(key))
	}
	i, ok := c.index[k]
	if !ok {
		return nil, &ErrNotFound{Key: key}
	}
	campaign := c.campaigns[i]
	return &campaign, nil
}

// Select returns the campaigns for the given keys in catalog order. An empty
// key list selects every campaign.
func (c *Catalog) Select(keys []string) ([]models.Campaign, error) {
	if len(keys) == 0 {
		return c.Campaigns(), nil
	}

	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		campaign, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		wanted[Key(campaign)] = true
	}

	var selected []models.Campaign
	for _, campaign := range c.Campaigns() {
		if wanted[Key(&campaign)] {
			selected = append(selected, campaign)
		}
	}
	return selected, nil
}

// Campaigns returns all loaded campaigns, newest first.
func (c *Catalog) Campaigns() []models.Campaign {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Campaign, len(c.campaigns))
	copy(out, c.campaigns)
	return out
}

// Keys returns the campaign keys in catalog order.
func (c *Catalog) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.campaigns))
	for i := range c.campaigns {
		keys = append(keys, Key(&c.campaigns[i]))
	}
	return keys
}

// Failures returns the files that could not be loaded.
func (c *Catalog) Failures() []*ingest.FileError {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*ingest.FileError, len(c.failures))
	copy(out, c.failures)
	return out
}

// Entries returns the listing view of every campaign.
func (c *Catalog) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.campaigns))
	for i := range c.campaigns {
		campaign := &c.campaigns[i]
		e := Entry{
			Key:          Key(campaign),
			Name:         campaign.Name,
			File:         campaign.File,
			DayZero:      campaign.DayZero.Format("2006-01-02"),
			AnchorSource: campaign.AnchorSource,
			Events:       len(campaign.Events),
			SkippedRows:  campaign.SkippedRows,
			Reasons:      campaign.Reasons(),
			LoadedAt:     c.loadedAt,
		}
		if campaign.HasMonth() {
			e.Month = campaign.Month.Format("2006-01")
		}
		if e.Reasons == nil {
			e.Reasons = []string{}
		}
		entries = append(entries, e)
	}
	return entries
}

// Len returns the number of loaded campaigns.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.campaigns)
}
