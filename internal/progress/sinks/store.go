package sinks

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
	"github.com/webanalyzer/webanalyzer/internal/progress"
)

// StoreSink persists leg transitions via an analyzer.StatusStore so request
// status lookups reflect delivery outcomes after the HTTP caller has been
// acknowledged.
type StoreSink struct {
	store  analyzer.StatusStore
	logger *zap.Logger
}

// NewStoreSink constructs a StoreSink for the provided status store.
func NewStoreSink(store analyzer.StatusStore, logger *zap.Logger) *StoreSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoreSink{store: store, logger: logger}
}

// Consume forwards leg transitions to the status store. Queued legs are
// created by the API handler, so that stage is skipped here.
func (s *StoreSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.store == nil {
		return nil
	}
	for _, evt := range batch {
		if evt.Stage == progress.StageLegQueued {
			continue
		}
		err := s.store.UpdateLeg(ctx, evt.RequestID, evt.Kind, evt.LegState(), evt.Note, evt.TS)
		if err != nil {
			return fmt.Errorf("update leg %s/%s: %w", evt.RequestID, evt.Kind, err)
		}
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *StoreSink) Close(context.Context) error {
	return nil
}
