package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"xhs-agent/agents/pipeline"
	"xhs-agent/internal/models"
	"xhs-agent/shared/config"
	"xhs-agent/shared/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run the full pipeline a single time and exit")
	preview := flag.Bool("preview", false, "force preview mode for this run")
	category := flag.String("category", "", "override the configured trending category")
	keyword := flag.String("keyword", "", "scrape search results for this keyword instead of the explore page")
	skipTrending := flag.Bool("skip-trending", false, "reuse the latest saved trending snapshot instead of scraping")
	configFile := flag.String("config", "", "path to the config file")
	setMode := flag.String("set-mode", "", "persist a new run mode (auto|preview) and exit")
	flag.Parse()

	if *configFile != "" {
		os.Setenv("CONFIG_FILE", *configFile)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *setMode != "" {
		if err := cfg.SetMode(*setMode); err != nil {
			log.Fatalf("Failed to set mode: %v", err)
		}
		fmt.Printf("Mode set to %s\n", *setMode)
		return
	}

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	opts := pipeline.RunOptions{
		Preview:      *preview,
		Category:     *category,
		Keyword:      *keyword,
		SkipTrending: *skipTrending,
	}

	if *once {
		fmt.Println("Running once...")
		orchestrator, err := pipeline.NewOrchestrator(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize pipeline: %v", err)
		}
		outcome, err := orchestrator.Run(ctx, opts)
		fmt.Println(outcome.GetSummary())
		// Hitting the daily quota is a clean stop, not a failure.
		if err != nil && outcome.Status != models.OutcomeQuotaReached {
			os.Exit(1)
		}
		return
	}

	s := scheduler.New(cfg,
		scheduler.Entry{Spec: cfg.Schedule.TrendingScan, Agent: pipeline.NewScanAgent(cfg)},
		scheduler.Entry{Spec: cfg.Schedule.AutoPublish, Agent: pipeline.NewPublishAgent(cfg, opts)},
	)

	fmt.Println("Starting scheduler...")
	if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Scheduler failed: %v", err)
	}
}
