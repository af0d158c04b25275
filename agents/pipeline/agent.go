package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"xhs-agent/agents/pipeline/trending"
	"xhs-agent/internal/models"
	"xhs-agent/shared/config"
	"xhs-agent/shared/scheduler"
	"xhs-agent/shared/storage"
)

// PublishAgent runs the full pipeline on the auto-publish schedule.
type PublishAgent struct {
	cfg          *config.Config
	opts         RunOptions
	orchestrator *Orchestrator
}

func NewPublishAgent(cfg *config.Config, opts RunOptions) *PublishAgent {
	return &PublishAgent{cfg: cfg, opts: opts}
}

func (a *PublishAgent) Name() string {
	return "xhs-pipeline"
}

func (a *PublishAgent) Initialize() error {
	if a.orchestrator != nil {
		return nil
	}
	orchestrator, err := NewOrchestrator(a.cfg)
	if err != nil {
		return err
	}
	a.orchestrator = orchestrator
	return nil
}

func (a *PublishAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	start := time.Now()
	outcome, err := a.orchestrator.Run(ctx, a.opts)
	duration := time.Since(start)

	switch outcome.Status {
	case models.OutcomeSuccess:
		if events != nil && events.OnSuccess != nil {
			events.OnSuccess(outcome, duration)
		}
		return nil
	case models.OutcomeQuotaReached:
		// The quota stopping a scheduled run is policy working, not a
		// fault; don't flip the health status over it.
		if events != nil && events.OnPartialFailure != nil {
			events.OnPartialFailure(err, duration)
		}
		return nil
	default:
		return err
	}
}

// ScanAgent only refreshes the trending snapshot so the publish runs have
// fresh material even when scraping is flaky at publish time.
type ScanAgent struct {
	cfg       *config.Config
	scraper   trendingScraper
	snapshots *storage.SnapshotStore
}

func NewScanAgent(cfg *config.Config) *ScanAgent {
	return &ScanAgent{cfg: cfg}
}

func (a *ScanAgent) Name() string {
	return "xhs-trending-scan"
}

func (a *ScanAgent) Initialize() error {
	if a.snapshots != nil {
		return nil
	}
	snapshots, err := storage.NewSnapshotStore(a.cfg.DataDir)
	if err != nil {
		return err
	}
	a.snapshots = snapshots
	a.scraper = trending.NewScraper(a.cfg.CookiesFile)
	return nil
}

func (a *ScanAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	start := time.Now()
	query := models.TrendingQuery{Category: a.cfg.Category}

	snap, err := a.scraper.Scrape(ctx, query)
	if err != nil {
		return fmt.Errorf("trending scan failed: %w", err)
	}
	path, err := a.snapshots.Save(snap)
	if err != nil {
		return err
	}
	log.Printf("Trending snapshot saved: %s (%d notes)", path, len(snap.Notes))

	if events != nil && events.OnSuccess != nil {
		events.OnSuccess(scanSummary(fmt.Sprintf("scanned %d trending notes (%s)", len(snap.Notes), query.Tag())), time.Since(start))
	}
	return nil
}

type scanSummary string

func (s scanSummary) GetSummary() string { return string(s) }
