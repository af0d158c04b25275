package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"xhs-agent/internal/models"
)

// PublishLog is an append-only record of published notes, one JSON line per
// entry, partitioned into one file per calendar day. It is both the audit
// trail and the durable state: the topic dedup set and the daily quota count
// are recomputed from it on every check, never cached. Single-writer only.
type PublishLog struct {
	dir string
	now func() time.Time
}

func NewPublishLog(dataDir string) (*PublishLog, error) {
	dir := filepath.Join(dataDir, "published")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create publish log directory: %w", err)
	}
	return &PublishLog{dir: dir, now: time.Now}, nil
}

func (l *PublishLog) todayFile() string {
	return filepath.Join(l.dir, l.now().Format("2006-01-02")+".jsonl")
}

// Append writes one entry to today's log file.
func (l *PublishLog) Append(entry models.PublishLogEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry: %w", err)
	}

	f, err := os.OpenFile(l.todayFile(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open publish log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append publish log entry: %w", err)
	}
	return nil
}

// CountToday recounts the entries published on the current local calendar
// day by re-reading the file.
func (l *PublishLog) CountToday() (int, error) {
	f, err := os.Open(l.todayFile())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open today's publish log: %w", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("failed to read today's publish log: %w", err)
	}
	return count, nil
}

// PublishedTitles returns the union of titles across every log file ever
// written, not just today's. Malformed lines are skipped.
func (l *PublishLog) PublishedTitles() (map[string]bool, error) {
	titles := make(map[string]bool)

	files, err := filepath.Glob(filepath.Join(l.dir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list publish log files: %w", err)
	}

	for _, file := range files {
		f, err := os.Open(file)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var entry models.PublishLogEntry
			if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
				continue
			}
			if entry.Title != "" {
				titles[entry.Title] = true
			}
		}
		f.Close()
	}

	return titles, nil
}
