package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"xhs-agent/internal/models"
)

// PackageStore keeps one directory per generation run holding the package
// record and its images. A package is written once, whole; a failed
// generation leaves no partial record.
type PackageStore struct {
	dir string
	now func() time.Time
}

func NewPackageStore(dataDir string) (*PackageStore, error) {
	dir := filepath.Join(dataDir, "generated")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create generated directory: %w", err)
	}
	return &PackageStore{dir: dir, now: time.Now}, nil
}

// NewRunDir creates and returns a timestamped directory for one generation
// run. Images are written into it before the package record.
func (s *PackageStore) NewRunDir() (string, error) {
	dir := filepath.Join(s.dir, s.now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run directory: %w", err)
	}
	return dir, nil
}

// Save writes the package record into its run directory and returns the path.
func (s *PackageStore) Save(runDir string, pkg *models.ContentPackage) (string, error) {
	data, err := json.MarshalIndent(pkg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal package: %w", err)
	}
	path := filepath.Join(runDir, "package.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write package: %w", err)
	}
	return path, nil
}
