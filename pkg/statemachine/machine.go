package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// Machine is a generic finite state machine holding a (state, context) pair.
// The context is owned by the machine: callers only ever see copies and
// actions mutate a draft that is committed when every hook succeeds.
type Machine[S ~string, E ~string, C any] struct {
	nodes     map[S]StateNode[S, E, C]
	initial   S
	seed      C
	clone     func(C) C
	observers []Observer
	logger    *slog.Logger

	mu    sync.RWMutex
	state S
	ctx   C
}

// New creates a machine from a complete state table. Every transition target
// and the initial state must be declared in nodes.
func New[S ~string, E ~string, C any](initial S, seed C, nodes map[S]StateNode[S, E, C], opts ...Option) (*Machine[S, E, C], error) {
	if len(nodes) == 0 {
		return nil, ErrEmptyStateMachine
	}
	if _, ok := nodes[initial]; !ok {
		return nil, fmt.Errorf("%w: initial state '%s'", ErrUnknownState, initial)
	}
	for from, node := range nodes {
		for event, t := range node.On {
			if t.Resolve != nil {
				continue
			}
			if _, ok := nodes[t.Target]; !ok {
				return nil, fmt.Errorf("%w: '%s' targeted from '%s' on '%s'", ErrUnknownState, t.Target, from, event)
			}
		}
	}

	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}

	clone, err := resolveCloner[C](o)
	if err != nil {
		return nil, err
	}

	table := make(map[S]StateNode[S, E, C], len(nodes))
	for s, node := range nodes {
		on := make(map[E]Transition[S, C], len(node.On))
		for e, t := range node.On {
			on[e] = t
		}
		table[s] = StateNode[S, E, C]{On: on, Entry: node.Entry, Exit: node.Exit}
	}

	m := &Machine[S, E, C]{
		nodes:     table,
		initial:   initial,
		seed:      clone(seed),
		clone:     clone,
		observers: o.observers,
		logger:    o.logger,
		state:     initial,
	}
	m.ctx = clone(m.seed)
	return m, nil
}

// MustNew is like New but panics on an invalid table.
func MustNew[S ~string, E ~string, C any](initial S, seed C, nodes map[S]StateNode[S, E, C], opts ...Option) *Machine[S, E, C] {
	m, err := New(initial, seed, nodes, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// State returns the current state.
func (m *Machine[S, E, C]) State() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Context returns a deep copy of the committed context.
func (m *Machine[S, E, C]) Context() C {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clone(m.ctx)
}

// Snapshot returns the current state and a copy of the context read atomically.
func (m *Machine[S, E, C]) Snapshot() (S, C) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.clone(m.ctx)
}

// Matches reports whether the machine is in the given state.
func (m *Machine[S, E, C]) Matches(state S) bool {
	return m.State() == state
}

// Events lists the events handled by the current state, sorted by name.
// Guards are not evaluated.
func (m *Machine[S, E, C]) Events() []E {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]E, 0, len(m.nodes[m.state].On))
	for e := range m.nodes[m.state].On {
		events = append(events, e)
	}
	slices.Sort(events)
	return events
}

// Can reports whether Send would accept the event right now. It never mutates
// the machine and is safe to call as often as needed.
func (m *Machine[S, E, C]) Can(ctx context.Context, event E, payload any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.nodes[m.state].On[event]
	if !ok {
		return false
	}

	view := m.clone(m.ctx)
	passed, err := m.checkGuard(ctx, t, view, payload)
	if err != nil || !passed {
		return false
	}

	_, ok = m.nodes[m.target(t, view, payload)]
	return ok
}

// Send delivers an event. It returns false without side effects when the
// current state has no transition for the event or its guard rejects it.
// A hook error aborts the transition, leaves the committed state and context
// untouched and is returned as an *ActionError.
func (m *Machine[S, E, C]) Send(ctx context.Context, event E, payload any) (bool, error) {
	start := time.Now()

	m.mu.Lock()
	attempt, err := m.send(ctx, event, payload)
	m.mu.Unlock()

	attempt.Duration = time.Since(start)
	m.notify(ctx, attempt)

	return attempt.Result == ResultAccepted, err
}

// Reset restores the initial state and a fresh copy of the seed context.
func (m *Machine[S, E, C]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.initial
	m.ctx = m.clone(m.seed)
}

// Must be called with write lock held.
func (m *Machine[S, E, C]) send(ctx context.Context, event E, payload any) (Attempt, error) {
	from := m.state
	attempt := Attempt{Event: string(event), From: string(from), To: string(from)}

	t, ok := m.nodes[from].On[event]
	if !ok {
		attempt.Result = ResultUnhandled
		return attempt, nil
	}

	passed, err := m.checkGuard(ctx, t, m.clone(m.ctx), payload)
	if err != nil {
		attempt.Result, attempt.Err = ResultFailed, err
		return attempt, err
	}
	if !passed {
		attempt.Result = ResultRejected
		return attempt, nil
	}

	draft := m.clone(m.ctx)
	to := m.target(t, m.clone(m.ctx), payload)
	target, ok := m.nodes[to]
	if !ok {
		err := fmt.Errorf("%w: '%s' resolved from '%s' on '%s'", ErrUnknownState, to, from, event)
		attempt.Result, attempt.Err = ResultFailed, err
		return attempt, err
	}
	attempt.To = string(to)

	hooks := []struct {
		phase Phase
		state S
		fn    Action[C]
	}{
		{PhaseExit, from, m.nodes[from].Exit},
		{PhaseAction, from, t.Action},
		{PhaseEntry, to, target.Entry},
	}
	for _, h := range hooks {
		if err := m.run(ctx, h.fn, &draft, payload); err != nil {
			aerr := newActionError(string(h.state), string(event), h.phase, err)
			attempt.Result, attempt.Err = ResultFailed, aerr
			return attempt, aerr
		}
	}

	m.state = to
	m.ctx = draft
	attempt.Result = ResultAccepted
	return attempt, nil
}

func (m *Machine[S, E, C]) target(t Transition[S, C], view C, payload any) S {
	if t.Resolve != nil {
		return t.Resolve(view, payload)
	}
	return t.Target
}

func (m *Machine[S, E, C]) checkGuard(ctx context.Context, t Transition[S, C], view C, payload any) (passed bool, err error) {
	if t.Guard == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			passed, err = false, fmt.Errorf("%w: %v", ErrGuardPanicked, r)
		}
	}()
	return t.Guard(ctx, view, payload), nil
}

func (m *Machine[S, E, C]) run(ctx context.Context, fn Action[C], draft *C, payload any) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, draft, payload)
}

func (m *Machine[S, E, C]) notify(ctx context.Context, a Attempt) {
	for _, obs := range m.observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					m.logger.WarnContext(ctx, "statemachine observer panicked",
						slog.String("event", a.Event),
						slog.Any("panic", r),
					)
				}
			}()
			obs(ctx, a)
		}()
	}
}
