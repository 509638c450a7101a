package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/models"
	"github.com/rewired-gh/redress-analyzer/internal/report"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
)

// CampaignList is the response of GET /api/campaigns.
type CampaignList struct {
	Campaigns []storage.Entry     `json:"campaigns"`
	Failures  []*ingest.FileError `json:"failures"`
}

// AnalysisResponse is the response of GET /api/campaigns/{name}/analysis.
type AnalysisResponse struct {
	Analysis *analysis.CampaignAnalysis `json:"analysis"`
	Summary  report.Summary             `json:"summary"`
}

// ThresholdResponse answers "how many days for X% coverage".
type ThresholdResponse struct {
	Campaign string            `json:"campaign"`
	Filter   analysis.Filter   `json:"filter"`
	Target   float64           `json:"target"`
	Days     analysis.NullDays `json:"days"`
	Records  int               `json:"records"`
}

// CoverageResponse answers "what coverage after N days".
type CoverageResponse struct {
	Campaign string             `json:"campaign"`
	Filter   analysis.Filter    `json:"filter"`
	Days     int                `json:"days"`
	Coverage analysis.NullFloat `json:"coverage"`
	Records  int                `json:"records"`
}

// AggregateResponse is the response of GET /api/aggregate.
type AggregateResponse struct {
	Aggregate *analysis.AggregateResult `json:"aggregate"`
	Summary   report.Summary            `json:"summary"`
}

// ReloadResponse is the response of POST /api/reload.
type ReloadResponse struct {
	Campaigns int `json:"campaigns"`
	Failures  int `json:"failures"`
}

// handleHealth returns service health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"campaigns": s.catalog.Len(),
	})
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	failures := s.catalog.Failures()
	if failures == nil {
		failures = []*ingest.FileError{}
	}
	respondJSON(w, http.StatusOK, CampaignList{
		Campaigns: s.catalog.Entries(),
		Failures:  failures,
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	campaign, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.parseView(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := analysis.AnalyzeCampaign(campaign, filter, view)
	if err != nil {
		s.analysisFailed(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AnalysisResponse{Analysis: a, Summary: report.CampaignSummary(a)})
}

func (s *Server) handleThreshold(w http.ResponseWriter, r *http.Request) {
	campaign, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.parseView(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deltas, err := analysis.FilteredDeltas(campaign, filter)
	if err != nil {
		s.analysisFailed(w, err)
		return
	}
	table := analysis.BuildDistribution(deltas)
	resp := ThresholdResponse{
		Campaign: storage.Key(campaign),
		Filter:   filter,
		Target:   view.TargetCoverage,
		Records:  table.Total,
	}
	if d, ok := table.DayForCoverage(view.TargetCoverage); ok {
		resp.Days = analysis.Days(d)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	campaign, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	filter, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.parseView(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	deltas, err := analysis.FilteredDeltas(campaign, filter)
	if err != nil {
		s.analysisFailed(w, err)
		return
	}
	table := analysis.BuildDistribution(deltas)
	resp := CoverageResponse{
		Campaign: storage.Key(campaign),
		Filter:   filter,
		Days:     view.WaitDays,
		Records:  table.Total,
	}
	if pct, ok := table.CoverageForDay(view.WaitDays); ok {
		resp.Coverage = analysis.Float(pct)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := s.parseFilter(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	view, err := s.parseView(q)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	weighting := s.defaults.Weighting
	if v := q.Get("weighting"); v != "" {
		if weighting, err = analysis.ParseWeighting(v); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	campaigns, err := s.catalog.Select(nonEmpty(q["campaign"]))
	if err != nil {
		var nf *storage.ErrNotFound
		if errors.As(err, &nf) {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := analysis.Aggregate(campaigns, filter, weighting)
	if err != nil {
		s.analysisFailed(w, err)
		return
	}
	respondJSON(w, http.StatusOK, AggregateResponse{Aggregate: result, Summary: report.AggregateSummary(result, view)})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.reload == nil {
		respondError(w, http.StatusNotImplemented, "reload is not available")
		return
	}
	result, err := s.reload(r.Context())
	if err != nil {
		logger.Error("Reload failed: %v", err)
		respondError(w, http.StatusBadGateway, fmt.Sprintf("reload failed: %v", err))
		return
	}
	s.catalog.Replace(result)
	logger.Info("Catalog reloaded: %d campaigns, %d failures", len(result.Campaigns), len(result.Failures))
	respondJSON(w, http.StatusOK, ReloadResponse{Campaigns: len(result.Campaigns), Failures: len(result.Failures)})
}

// lookup resolves the {name} URL parameter, writing a 404 when it is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*models.Campaign, bool) {
	name := chi.URLParam(r, "name")
	campaign, err := s.catalog.Get(name)
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return nil, false
	}
	return campaign, true
}

func (s *Server) analysisFailed(w http.ResponseWriter, err error) {
	var dateErr *models.InvalidDateError
	if errors.As(err, &dateErr) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	logger.Error("Analysis failed: %v", err)
	respondError(w, http.StatusInternalServerError, err.Error())
}

// parseFilter overrides the default filter with the reason and
// exclude_negative query parameters. Any reason parameter replaces the
// configured reasons; reason= with no value selects all reasons.
func (s *Server) parseFilter(q url.Values) (analysis.Filter, error) {
	filter := analysis.Filter{
		Reasons:         append([]string(nil), s.defaults.Filter.Reasons...),
		ExcludeNegative: s.defaults.Filter.ExcludeNegative,
	}
	if reasons, ok := q["reason"]; ok {
		filter.Reasons = nonEmpty(reasons)
	}
	if v := q.Get("exclude_negative"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, fmt.Errorf("invalid exclude_negative %q: must be true or false", v)
		}
		filter.ExcludeNegative = b
	}
	return filter, nil
}

// parseView overrides the default view with the target and days query parameters.
func (s *Server) parseView(q url.Values) (analysis.View, error) {
	view := s.defaults.View
	if v := q.Get("target"); v != "" {
		target, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return view, fmt.Errorf("invalid target %q: must be a number", v)
		}
		view.TargetCoverage = target
	}
	if v := q.Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			return view, fmt.Errorf("invalid days %q: must be an integer", v)
		}
		view.WaitDays = days
	}
	if err := view.Validate(); err != nil {
		return view, err
	}
	return view, nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
