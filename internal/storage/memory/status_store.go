package memory

import (
	"context"
	"sync"
	"time"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// StatusStore tracks per-request delivery state in memory.
type StatusStore struct {
	mu      sync.RWMutex
	records map[string]analyzer.AnalysisRecord
}

var _ analyzer.StatusStore = (*StatusStore)(nil)

// NewStatusStore creates an empty in-memory status store.
func NewStatusStore() *StatusStore {
	return &StatusStore{records: make(map[string]analyzer.AnalysisRecord)}
}

// CreateRequest registers a new analysis request with its initial legs.
func (s *StatusStore) CreateRequest(_ context.Context, rec analyzer.AnalysisRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.Legs = append([]analyzer.LegRecord(nil), rec.Legs...)
	s.records[rec.ID] = rec
	return nil
}

// UpdateLeg transitions one delivery leg of a request. Unknown requests or
// legs return analyzer.ErrRequestNotFound.
func (s *StatusStore) UpdateLeg(
	_ context.Context,
	requestID string,
	kind analyzer.TaskKind,
	state analyzer.LegState,
	errText string,
	at time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[requestID]
	if !ok {
		return analyzer.ErrRequestNotFound
	}
	for i := range rec.Legs {
		if rec.Legs[i].Kind != kind {
			continue
		}
		rec.Legs[i].State = state
		rec.Legs[i].ErrorText = errText
		rec.Legs[i].UpdatedAt = at
		s.records[requestID] = rec
		return nil
	}
	return analyzer.ErrRequestNotFound
}

// GetRequest returns a copy of the stored record.
func (s *StatusStore) GetRequest(_ context.Context, requestID string) (analyzer.AnalysisRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[requestID]
	if !ok {
		return analyzer.AnalysisRecord{}, analyzer.ErrRequestNotFound
	}
	rec.Legs = append([]analyzer.LegRecord(nil), rec.Legs...)
	return rec, nil
}
