package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/rewired-gh/redress-analyzer/internal/analysis"
	"github.com/rewired-gh/redress-analyzer/internal/config"
	"github.com/rewired-gh/redress-analyzer/internal/ingest"
	"github.com/rewired-gh/redress-analyzer/internal/logger"
	"github.com/rewired-gh/redress-analyzer/internal/report"
	"github.com/rewired-gh/redress-analyzer/internal/storage"
	"github.com/rewired-gh/redress-analyzer/internal/telegram"
)

func main() {
	flags := pflag.NewFlagSet("redress-analyzer", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to configuration file")
	list := flags.Bool("list", false, "List loaded campaigns and exit")
	campaigns := flags.StringSlice("campaign", nil, "Campaign to analyze (key or file name); repeat to aggregate a selection")
	aggregate := flags.Bool("aggregate", false, "Aggregate the selected campaigns (all when none is given)")
	flags.String("weighting", "pooled", "Aggregation weighting: pooled or percentile_average")
	flags.StringSlice("reason", nil, "Only use redresses with this reason (repeatable)")
	flags.Bool("exclude-negative", true, "Drop redresses dated before day 0")
	flags.Float64("target", 95, "Target coverage in percent")
	flags.Int("wait-days", 10, "Waiting period in days")
	flags.String("json-out", "", "Write the analysis as JSON to this path")
	flags.String("xlsx-out", "", "Write the analysis as an Excel workbook to this path")
	flags.Bool("notify", false, "Send the summary to Telegram")
	flags.String("source-dir", "", "Directory holding campaign workbooks")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatalf("Failed to parse flags: %v", err)
	}

	// Load configuration
	cfg, err := config.Load(*configPath, flags)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if *configPath != "" {
		logger.Debug("Configuration loaded from %s", *configPath)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Interrupted, stopping...")
		cancel()
	}()

	if err := run(ctx, cfg, *list, *aggregate, *campaigns); err != nil {
		logger.Fatal("%v", err)
	}
}

func run(ctx context.Context, cfg *config.Config, list, aggregate bool, keys []string) error {
	overrides, err := cfg.Analysis.Overrides()
	if err != nil {
		return err
	}
	src, err := ingest.NewSource(ctx, cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	result, err := ingest.Load(ctx, src, overrides)
	if err != nil {
		return fmt.Errorf("failed to load campaigns: %w", err)
	}
	catalog := storage.New(result)

	if list {
		report.WriteCatalog(os.Stdout, catalog.Entries(), catalog.Failures())
		return nil
	}
	if catalog.Len() == 0 {
		return fmt.Errorf("no campaigns loaded from %s", src)
	}

	filter := cfg.Analysis.Filter()
	view := cfg.Analysis.View()

	var doc *report.Document
	if aggregate || len(keys) > 1 {
		weighting, err := analysis.ParseWeighting(cfg.Analysis.Weighting)
		if err != nil {
			return err
		}
		selected, err := catalog.Select(keys)
		if err != nil {
			return err
		}
		r, err := analysis.Aggregate(selected, filter, weighting)
		if err != nil {
			return fmt.Errorf("aggregation failed: %w", err)
		}
		report.WriteAggregate(os.Stdout, r, view)
		doc = report.NewAggregateDocument(r, view, catalog.Failures())
	} else {
		// The newest campaign is analyzed when none is named.
		key := catalog.Keys()[0]
		if len(keys) == 1 {
			key = keys[0]
		}
		c, err := catalog.Get(key)
		if err != nil {
			return err
		}
		a, err := analysis.AnalyzeCampaign(c, filter, view)
		if err != nil {
			return fmt.Errorf("analysis of %s failed: %w", c.File, err)
		}
		report.WriteCampaign(os.Stdout, a)
		doc = report.NewCampaignDocument(a, catalog.Failures())
	}

	if path := cfg.Report.JSONPath; path != "" {
		if err := report.WriteJSON(path, doc); err != nil {
			return err
		}
		logger.Info("JSON report written to %s", path)
	}
	if path := cfg.Report.XLSXPath; path != "" {
		if err := report.WriteXLSX(path, doc); err != nil {
			return err
		}
		logger.Info("Excel report written to %s", path)
	}

	if cfg.Telegram.Enabled {
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			return fmt.Errorf("failed to initialize Telegram client: %w", err)
		}
		if err := client.Send(ctx, doc.Summary); err != nil {
			return fmt.Errorf("failed to send Telegram notification: %w", err)
		}
		logger.Info("Summary sent to Telegram")
	}
	return nil
}
