package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rewired-gh/redress-analyzer/internal/config"
	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/models"
)

// FileError records why one workbook could not be loaded.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// MarshalJSON renders the cause as its message.
func (e *FileError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		File  string `json:"file"`
		Error string `json:"error"`
	}{e.File, e.Err.Error()})
}

// Result is the outcome of loading every workbook of a source.
// Campaigns follow the file ordering of SortFiles.
type Result struct {
	Campaigns []models.Campaign
	Failures  []*FileError
}

// Load lists the source and reads every workbook in order. A failing file is
// logged and recorded in Failures; only a failure to list the source is
// returned as an error.
func Load(ctx context.Context, src Source, overrides map[string]time.Time) (*Result, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, err
	}

	files := Describe(names)
	SortFiles(files)
	logger.Info("Found %d workbooks in %s", len(files), src)

	result := &Result{Campaigns: make([]models.Campaign, 0, len(files))}
	for _, fi := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		campaign, err := loadFile(ctx, src, fi.Name, overrides)
		if err != nil {
			logger.Warn("Skipping %s: %v", fi.Name, err)
			result.Failures = append(result.Failures, &FileError{File: fi.Name, Err: err})
			continue
		}
		if campaign.SkippedRows > 0 {
			logger.Warn("%s: %d rows with an invalid redress date were skipped", fi.Name, campaign.SkippedRows)
		}
		logger.Debug("Loaded %s: %d events, day 0 %s (%s)", fi.Name, len(campaign.Events),
			campaign.DayZero.Format("2006-01-02"), campaign.AnchorSource)
		result.Campaigns = append(result.Campaigns, *campaign)
	}

	logger.Info("Loaded %d campaigns, %d failed", len(result.Campaigns), len(result.Failures))
	return result, nil
}

func loadFile(ctx context.Context, src Source, name string, overrides map[string]time.Time) (*models.Campaign, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadWorkbook(rc, name, overrides)
}

// NewSource builds the configured workbook source.
func NewSource(ctx context.Context, cfg config.SourceConfig) (Source, error) {
	switch cfg.Type {
	case "dir":
		return NewDirSource(cfg.Dir), nil
	case "s3":
		client, err := NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return NewS3Source(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}
