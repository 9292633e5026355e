// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces that delivery workers use to report their lifecycle. It
// batches events on a background goroutine and fans them out to pluggable
// sinks such as Prometheus metrics or the status store.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported delivery stages.
const (
	StageLegQueued Stage = "LEG_QUEUED"
	StageLegStart  Stage = "LEG_START"
	StageLegSent   Stage = "LEG_SENT"
	StageLegFailed Stage = "LEG_FAILED"
)

// Event captures a single delivery-leg milestone.
type Event struct {
	// RequestID identifies the originating analysis request.
	RequestID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle milestone occurred.
	Stage Stage
	// Kind identifies the delivery leg (text or PDF email).
	Kind analyzer.TaskKind
	// Dur captures end-to-end latency for terminal stages.
	Dur time.Duration
	// Note carries low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RequestID == "" {
		return errors.New("request id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageLegQueued, StageLegStart, StageLegSent, StageLegFailed:
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	switch e.Kind {
	case analyzer.TaskTextEmail, analyzer.TaskPDFEmail:
	default:
		return fmt.Errorf("unknown task kind %q", e.Kind)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// LegState maps the event stage onto the status-store state machine.
func (e Event) LegState() analyzer.LegState {
	switch e.Stage {
	case StageLegStart:
		return analyzer.LegRunning
	case StageLegSent:
		return analyzer.LegSent
	case StageLegFailed:
		return analyzer.LegFailed
	default:
		return analyzer.LegQueued
	}
}
