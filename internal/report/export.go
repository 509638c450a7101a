package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

// Document kinds.
const (
	KindCampaign  = "campaign"
	KindAggregate = "aggregate"
)

// Document is one exported report run. Exactly one of Campaign and Aggregate is set.
type Document struct {
	RunID       string                     `json:"run_id"`
	GeneratedAt time.Time                  `json:"generated_at"`
	Kind        string                     `json:"kind"`
	View        analysis.View              `json:"view"`
	Campaign    *analysis.CampaignAnalysis `json:"campaign,omitempty"`
	Aggregate   *analysis.AggregateResult  `json:"aggregate,omitempty"`
	Summary     Summary                    `json:"summary"`
	Failures    []*ingest.FileError        `json:"load_failures,omitempty"`
}

// NewCampaignDocument wraps a single-campaign analysis for export.
func NewCampaignDocument(a *analysis.CampaignAnalysis, failures []*ingest.FileError) *Document {
	return &Document{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Kind:        KindCampaign,
		View:        a.View,
		Campaign:    a,
		Summary:     CampaignSummary(a),
		Failures:    failures,
	}
}

// NewAggregateDocument wraps an aggregate for export.
func NewAggregateDocument(r *analysis.AggregateResult, view analysis.View, failures []*ingest.FileError) *Document {
	return &Document{
		RunID:       uuid.New().String(),
		GeneratedAt: time.Now().UTC(),
		Kind:        KindAggregate,
		View:        view,
		Aggregate:   r,
		Summary:     AggregateSummary(r, view),
		Failures:    failures,
	}
}

// Distribution returns the table the document charts.
func (d *Document) Distribution() *analysis.Table {
	if d.Campaign != nil {
		return d.Campaign.Table
	}
	if d.Aggregate != nil {
		return d.Aggregate.Distribution
	}
	return nil
}

// WriteJSON writes the document as indented JSON, atomically.
func WriteJSON(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}
	return nil
}
