package sinks

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/webanalyzer/webanalyzer/internal/progress"
)

// PrometheusSink exports delivery progress metrics. It owns the collectors
// for leg lifecycle counters and delivery latency.
type PrometheusSink struct {
	legsQueued    *prometheus.CounterVec
	legsCompleted *prometheus.CounterVec
	legsInFlight  *prometheus.GaugeVec
	legDuration   *prometheus.HistogramVec
}

// NewPrometheusSink registers the collectors against the provided registry.
func NewPrometheusSink(reg prometheus.Registerer) (*PrometheusSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PrometheusSink{
		legsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webanalyzer_delivery_legs_queued_total",
			Help: "Delivery legs enqueued, partitioned by kind.",
		}, []string{"kind"}),
		legsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webanalyzer_delivery_legs_completed_total",
			Help: "Delivery legs finished, partitioned by kind and result.",
		}, []string{"kind", "result"}),
		legsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "webanalyzer_delivery_legs_in_flight",
			Help: "Delivery legs currently being processed.",
		}, []string{"kind"}),
		legDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webanalyzer_delivery_leg_duration_seconds",
			Help:    "Wall time per completed delivery leg.",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"kind", "result"}),
	}
	for _, collector := range []prometheus.Collector{
		s.legsQueued,
		s.legsCompleted,
		s.legsInFlight,
		s.legDuration,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, fmt.Errorf("register progress collector: %w", err)
		}
	}
	return s, nil
}

// Consume updates the collectors from the batch. Safe for concurrent use.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		s.consumeEvent(evt)
	}
	return nil
}

func (s *PrometheusSink) consumeEvent(evt progress.Event) {
	kind := string(evt.Kind)
	switch evt.Stage {
	case progress.StageLegQueued:
		s.legsQueued.WithLabelValues(kind).Inc()
	case progress.StageLegStart:
		s.legsInFlight.WithLabelValues(kind).Inc()
	case progress.StageLegSent:
		s.legsInFlight.WithLabelValues(kind).Dec()
		s.observe(evt, "success")
	case progress.StageLegFailed:
		s.legsInFlight.WithLabelValues(kind).Dec()
		s.observe(evt, "error")
	}
}

func (s *PrometheusSink) observe(evt progress.Event, result string) {
	kind := string(evt.Kind)
	s.legsCompleted.WithLabelValues(kind, result).Inc()
	if evt.Dur > 0 {
		s.legDuration.WithLabelValues(kind, result).Observe(evt.Dur.Seconds())
	}
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
