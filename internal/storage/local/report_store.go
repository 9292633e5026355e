// Package local implements a filesystem-backed report store.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// Config captures the parameters for the local report store.
type Config struct {
	// BaseDir is the directory where report PDFs are written.
	BaseDir string `mapstructure:"base_dir" yaml:"base_dir"`
}

// ReportStore persists report artifacts as flat files under a base
// directory. Lookups rely on the report naming scheme, so only names produced
// by analyzer.ReportFileName are discoverable.
type ReportStore struct {
	baseDir string
}

var _ analyzer.ReportStore = (*ReportStore)(nil)

// New creates a filesystem report store, creating the base directory if
// needed and verifying it is writable.
func New(cfg Config) (*ReportStore, error) {
	if strings.TrimSpace(cfg.BaseDir) == "" {
		return nil, fmt.Errorf("base directory is required")
	}

	info, err := os.Stat(cfg.BaseDir)
	switch {
	case err != nil && os.IsNotExist(err):
		if mkErr := os.MkdirAll(cfg.BaseDir, 0o750); mkErr != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", mkErr)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat base directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("base directory path is not a directory")
	}

	testFile := filepath.Join(cfg.BaseDir, ".writable_test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return nil, fmt.Errorf("base directory is not writable: %w", err)
	}
	if err := os.Remove(testFile); err != nil {
		return nil, fmt.Errorf("failed to clean up test file: %w", err)
	}

	return &ReportStore{baseDir: cfg.BaseDir}, nil
}

// SaveReport writes a report artifact and returns its filesystem path.
// Names must be flat; anything resolving outside the base directory is
// rejected.
func (s *ReportStore) SaveReport(_ context.Context, name string, data []byte) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("report name is required")
	}

	fullPath := filepath.Join(s.baseDir, name)
	cleanBase := filepath.Clean(s.baseDir)
	if !strings.HasPrefix(filepath.Clean(fullPath), cleanBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected")
	}

	if err := os.WriteFile(fullPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return fullPath, nil
}

// LatestReport returns the most recently modified report whose name matches
// the sanitized email key. Returns analyzer.ErrReportNotFound when no
// artifact matches.
func (s *ReportStore) LatestReport(_ context.Context, emailKey string) (analyzer.ReportFile, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return analyzer.ReportFile{}, fmt.Errorf("failed to read reports directory: %w", err)
	}

	prefix := "report_" + emailKey + "_"
	var best analyzer.ReportFile
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !found || info.ModTime().After(best.ModTime) {
			best = analyzer.ReportFile{Name: name, ModTime: info.ModTime()}
			found = true
		}
	}
	if !found {
		return analyzer.ReportFile{}, analyzer.ErrReportNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.baseDir, best.Name))
	if err != nil {
		return analyzer.ReportFile{}, fmt.Errorf("failed to read report %s: %w", best.Name, err)
	}
	best.Data = data
	return best, nil
}
