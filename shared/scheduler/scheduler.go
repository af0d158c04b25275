package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"xhs-agent/shared/config"
	"xhs-agent/shared/monitoring"

	"github.com/robfig/cron/v3"
)

// Metrics defines the common interface for agent run metrics
type Metrics interface {
	// GetSummary returns a human-readable summary of the run
	GetSummary() string
}

// AgentEvents provides callbacks for monitoring agent execution
type AgentEvents struct {
	OnSuccess         func(metrics Metrics, duration time.Duration)
	OnPartialFailure  func(err error, duration time.Duration)
	OnCriticalFailure func(err error, duration time.Duration)
}

// Agent defines the interface that all agents must implement
type Agent interface {
	Name() string
	RunOnce(ctx context.Context, events *AgentEvents) error
	Initialize() error
}

// Entry binds one agent to one cron spec. The pipeline runs two: a
// trending scan that only refreshes snapshots, and the publish run.
type Entry struct {
	Spec  string
	Agent Agent
}

// Scheduler manages the execution of agents on their schedules
type Scheduler struct {
	config  *config.Config
	monitor *monitoring.Monitor
	entries []Entry
	cron    *cron.Cron
}

func New(cfg *config.Config, entries ...Entry) *Scheduler {
	return &Scheduler{
		config:  cfg,
		monitor: monitoring.NewMonitor(),
		entries: entries,
		// Prevent overlapping runs
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	for _, entry := range s.entries {
		if err := entry.Agent.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", entry.Agent.Name(), err)
		}
	}

	// Start health check server (configurable via config, defaults to 8080)
	healthServer := monitoring.NewHealthServer(s.monitor, fmt.Sprintf("%d", s.config.Monitoring.HealthPort))
	healthServer.Start()

	for _, entry := range s.entries {
		entry := entry
		_, err := s.cron.AddFunc(entry.Spec, func() {
			if err := s.runOnce(ctx, entry.Agent); err != nil {
				log.Printf("Error running scheduled job for %s: %v", entry.Agent.Name(), err)
			}
		})
		if err != nil {
			return fmt.Errorf("failed to add cron job for %s: %w", entry.Agent.Name(), err)
		}
		log.Printf("Scheduled %s with: %s", entry.Agent.Name(), entry.Spec)
	}

	s.cron.Start()

	// Keep the scheduler running indefinitely until context is cancelled
	<-ctx.Done()
	log.Printf("Scheduler stopped")
	s.cron.Stop()
	return ctx.Err()
}

// RunOnce runs every configured agent a single time, in order. Used by the
// --once CLI path.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	for _, entry := range s.entries {
		if err := entry.Agent.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize %s: %w", entry.Agent.Name(), err)
		}
		if err := s.runOnce(ctx, entry.Agent); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context, agent Agent) error {
	startTime := time.Now()
	agentName := agent.Name()

	log.Printf("Starting %s run...", agentName)

	// Create event handlers for monitoring
	events := &AgentEvents{
		OnSuccess: func(metrics Metrics, duration time.Duration) {
			s.monitor.RecordSuccess(metrics.GetSummary(), duration)
		},
		OnPartialFailure: func(err error, duration time.Duration) {
			s.monitor.RecordPartialFailure(fmt.Errorf("%s partial failure: %w", agentName, err), duration)
		},
		OnCriticalFailure: func(err error, duration time.Duration) {
			s.monitor.RecordCriticalFailure(fmt.Errorf("%s critical failure: %w", agentName, err), duration)
		},
	}

	if err := agent.RunOnce(ctx, events); err != nil {
		duration := time.Since(startTime)
		s.monitor.RecordCriticalFailure(fmt.Errorf("%s failed: %w", agentName, err), duration)
		return fmt.Errorf("%s run failed: %w", agentName, err)
	}

	return nil
}
