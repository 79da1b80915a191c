package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus turns transition events into metrics:
//
//	onboarding_transitions_total{event,from,to,result}
//	onboarding_transition_duration_seconds{event,result}
//	onboarding_events_total{event} for every other event
type Prometheus struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	events      *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_transitions_total",
				Help: "Onboarding state machine transition attempts by outcome.",
			},
			[]string{PropEvent, PropFrom, PropTo, PropResult},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "onboarding_transition_duration_seconds",
				Help:    "Time spent evaluating guards and running transition actions.",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{PropEvent, PropResult},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "onboarding_events_total",
				Help: "Other onboarding analytics events.",
			},
			[]string{PropEvent},
		),
	}

	for _, c := range []prometheus.Collector{p.transitions, p.duration, p.events} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register onboarding metrics: %w", err)
		}
	}
	return p, nil
}

func (p *Prometheus) Track(_ context.Context, event string, props map[string]any) {
	if event != EventTransition {
		p.events.WithLabelValues(event).Inc()
		return
	}

	name := label(props, PropEvent)
	result := label(props, PropResult)
	p.transitions.WithLabelValues(name, label(props, PropFrom), label(props, PropTo), result).Inc()

	if ms, ok := props[PropDurationMS].(float64); ok {
		p.duration.WithLabelValues(name, result).Observe((time.Duration(ms * float64(time.Millisecond))).Seconds())
	}
}

func label(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
