package telemetry

import (
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
)

// EventTransition is tracked for every onboarding transition attempt.
const EventTransition = "onboarding_transition"

// Property keys of EventTransition.
const (
	PropEvent      = "event"
	PropFrom       = "from"
	PropTo         = "to"
	PropResult     = "result"
	PropError      = "error"
	PropUserID     = "userId"
	PropStep       = "step"
	PropDurationMS = "durationMs"
)

// Tracker receives fire-and-forget analytics events. Implementations must
// not block the caller for long.
type Tracker interface {
	Track(ctx context.Context, event string, props map[string]any)
}

// TrackerFunc adapts a function to Tracker.
type TrackerFunc func(ctx context.Context, event string, props map[string]any)

func (f TrackerFunc) Track(ctx context.Context, event string, props map[string]any) {
	f(ctx, event, props)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Track(context.Context, string, map[string]any) {}

// Multi forwards events to several trackers in order.
type Multi struct {
	trackers []Tracker
}

// NewMulti ignores nil trackers.
func NewMulti(trackers ...Tracker) *Multi {
	filtered := make([]Tracker, 0, len(trackers))
	for _, t := range trackers {
		if t != nil {
			filtered = append(filtered, t)
		}
	}
	return &Multi{trackers: filtered}
}

func (m *Multi) Track(ctx context.Context, event string, props map[string]any) {
	for _, t := range m.trackers {
		t.Track(ctx, event, props)
	}
}

// Safe wraps t so that a panicking tracker is logged instead of propagating.
func Safe(t Tracker, log *slog.Logger) Tracker {
	if t == nil {
		return Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return TrackerFunc(func(ctx context.Context, event string, props map[string]any) {
		defer func() {
			if r := recover(); r != nil {
				log.WarnContext(ctx, "telemetry tracker panicked",
					logger.Event(event),
					slog.Any("panic", r),
				)
			}
		}()
		t.Track(ctx, event, props)
	})
}

// Slog writes each event as an info record with the properties as attributes.
type Slog struct {
	logger *slog.Logger
	level  slog.Level
}

func NewSlog(l *slog.Logger) *Slog {
	if l == nil {
		l = slog.Default()
	}
	return &Slog{logger: l.With(logger.Component("telemetry")), level: slog.LevelInfo}
}

func (s *Slog) Track(ctx context.Context, event string, props map[string]any) {
	attrs := make([]slog.Attr, 0, len(props))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		attrs = append(attrs, slog.Any(k, props[k]))
	}
	s.logger.LogAttrs(ctx, s.level, event, attrs...)
}

// Recorded is one event captured by a Recorder.
type Recorded struct {
	Event string
	Props map[string]any
}

// Recorder keeps events in memory. Useful in tests and for debugging.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Track(_ context.Context, event string, props map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Props: maps.Clone(props)})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// Reset drops all recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
