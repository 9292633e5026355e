// Package memory provides in-memory stores for development and tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// ReportStore keeps report artifacts in memory. Lookups mirror the
// filesystem store's naming scheme.
type ReportStore struct {
	clock analyzer.Clock

	mu    sync.RWMutex
	files map[string]analyzer.ReportFile
}

var _ analyzer.ReportStore = (*ReportStore)(nil)

// NewReportStore creates an empty in-memory report store.
func NewReportStore(clock analyzer.Clock) *ReportStore {
	return &ReportStore{
		clock: clock,
		files: make(map[string]analyzer.ReportFile),
	}
}

// SaveReport stores the artifact and returns a pseudo URI.
func (s *ReportStore) SaveReport(_ context.Context, name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.files[name] = analyzer.ReportFile{
		Name:    name,
		ModTime: s.clock.Now(),
		Data:    append([]byte(nil), data...),
	}
	return "memory://" + name, nil
}

// LatestReport returns the newest stored artifact for the email key.
func (s *ReportStore) LatestReport(_ context.Context, emailKey string) (analyzer.ReportFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := "report_" + emailKey + "_"
	var best analyzer.ReportFile
	found := false
	for name, file := range s.files {
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".pdf") {
			continue
		}
		newer := file.ModTime.After(best.ModTime) ||
			(file.ModTime.Equal(best.ModTime) && name > best.Name)
		if !found || newer {
			best = file
			found = true
		}
	}
	if !found {
		return analyzer.ReportFile{}, analyzer.ErrReportNotFound
	}
	return best, nil
}
