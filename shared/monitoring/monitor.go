package monitoring

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// Monitor tracks the outcome of the most recent run. Quota-reached runs
// are recorded as partial so a quiet day is not reported unhealthy.
type Monitor struct {
	mu             sync.Mutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
}

func NewMonitor() *Monitor {
	return &Monitor{}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.mu.Unlock()

	log.Printf("✅ Run completed successfully - %s (took %v)", summary, duration)
}

func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	// Don't change health status for partial failures
	log.Printf("⚠️  PARTIAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastSummary = err.Error()
	m.mu.Unlock()

	log.Printf("🚨 CRITICAL FAILURE: %s (Duration: %v)", err.Error(), duration)
}

func (m *Monitor) IsHealthy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return true // No runs yet, assume healthy
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}

	when := m.lastRunTime.Format("Jan 2 15:04")
	if m.lastRunSuccess {
		return fmt.Sprintf("✅ Last run: %s - %s", when, m.lastSummary)
	}
	return fmt.Sprintf("❌ Last run failed: %s - %s", when, m.lastSummary)
}
