package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xhs-agent/internal/models"
)

// ErrNoSnapshot signals that no trending snapshot has been saved yet.
var ErrNoSnapshot = errors.New("no trending snapshot available")

// SnapshotStore persists one file per trending scrape. Snapshots are
// immutable once written.
type SnapshotStore struct {
	dir string
	now func() time.Time
}

func NewSnapshotStore(dataDir string) (*SnapshotStore, error) {
	dir := filepath.Join(dataDir, "trending")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trending directory: %w", err)
	}
	return &SnapshotStore{dir: dir, now: time.Now}, nil
}

// Save writes the snapshot to a file named by capture time and query tag and
// returns the path.
func (s *SnapshotStore) Save(snap *models.TrendingSnapshot) (string, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	name := fmt.Sprintf("%s_%s.json", s.now().Format("2006-01-02_150405"), snap.Query.Tag())
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}

// Latest loads the most recently written snapshot, by modification time.
func (s *SnapshotStore) Latest() (*models.TrendingSnapshot, error) {
	files, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(files) == 0 {
		return nil, ErrNoSnapshot
	}

	var newest string
	var newestMod time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestMod) {
			newest = file
			newestMod = info.ModTime()
		}
	}
	if newest == "" {
		return nil, ErrNoSnapshot
	}

	return s.load(newest)
}

func (s *SnapshotStore) load(path string) (*models.TrendingSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}
	var snap models.TrendingSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}
