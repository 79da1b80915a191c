package statemachine

import (
	"errors"
	"fmt"
	"slices"
)

// Builder provides a fluent API for building state machines. Errors are
// collected and reported by Build.
type Builder[S ~string, E ~string, C any] struct {
	initial S
	seed    C
	nodes   map[S]*StateNode[S, E, C]
	order   []S
	globals []globalTransition[S, E]
	opts    []Option
	errs    []error
}

type globalTransition[S ~string, E ~string] struct {
	event E
	to    S
	opts  []TransitionOption
}

// NewBuilder creates a builder for a machine starting in initial with the
// given seed context.
func NewBuilder[S ~string, E ~string, C any](initial S, seed C) *Builder[S, E, C] {
	return &Builder[S, E, C]{
		initial: initial,
		seed:    seed,
		nodes:   make(map[S]*StateNode[S, E, C]),
	}
}

// State declares a state with optional entry and exit actions. Declaring the
// same state twice replaces its hooks but keeps its transitions.
func (b *Builder[S, E, C]) State(s S, entry, exit Action[C]) *Builder[S, E, C] {
	node := b.node(s)
	node.Entry = entry
	node.Exit = exit
	return b
}

// On adds a transition from one state to another when event fires.
func (b *Builder[S, E, C]) On(from S, event E, to S, opts ...TransitionOption) *Builder[S, E, C] {
	t, except, err := b.transition(to, opts)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("transition %s -> %s on %s: %w", from, to, event, err))
		return b
	}
	if len(except) > 0 {
		b.errs = append(b.errs, fmt.Errorf("transition %s -> %s on %s: Except is only valid for Global", from, to, event))
		return b
	}

	node := b.node(from)
	if _, exists := node.On[event]; exists {
		b.errs = append(b.errs, fmt.Errorf("%w: '%s' in '%s'", ErrDuplicateHandler, event, from))
		return b
	}
	node.On[event] = t
	return b
}

// Global adds the same transition to every state declared when Build is
// called, except the states listed with Except. States that already handle
// the event keep their own transition.
func (b *Builder[S, E, C]) Global(event E, to S, opts ...TransitionOption) *Builder[S, E, C] {
	b.globals = append(b.globals, globalTransition[S, E]{event: event, to: to, opts: opts})
	return b
}

// With appends machine options applied by Build.
func (b *Builder[S, E, C]) With(opts ...Option) *Builder[S, E, C] {
	b.opts = append(b.opts, opts...)
	return b
}

// Build expands global transitions and constructs the machine.
func (b *Builder[S, E, C]) Build() (*Machine[S, E, C], error) {
	errs := slices.Clone(b.errs)

	nodes := make(map[S]StateNode[S, E, C], len(b.nodes))
	for s, node := range b.nodes {
		on := make(map[E]Transition[S, C], len(node.On))
		for e, t := range node.On {
			on[e] = t
		}
		nodes[s] = StateNode[S, E, C]{On: on, Entry: node.Entry, Exit: node.Exit}
	}

	for _, g := range b.globals {
		t, except, err := b.transition(g.to, g.opts)
		if err != nil {
			errs = append(errs, fmt.Errorf("global transition -> %s on %s: %w", g.to, g.event, err))
			continue
		}
		for _, s := range b.order {
			if slices.Contains(except, string(s)) {
				continue
			}
			if _, handled := nodes[s].On[g.event]; handled {
				continue
			}
			nodes[s].On[g.event] = t
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(b.initial, b.seed, nodes, b.opts...)
}

// MustBuild is like Build but panics on error.
func (b *Builder[S, E, C]) MustBuild() *Machine[S, E, C] {
	m, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build state machine: %v", err))
	}
	return m
}

func (b *Builder[S, E, C]) node(s S) *StateNode[S, E, C] {
	node, ok := b.nodes[s]
	if !ok {
		node = &StateNode[S, E, C]{On: make(map[E]Transition[S, C])}
		b.nodes[s] = node
		b.order = append(b.order, s)
	}
	return node
}

func (b *Builder[S, E, C]) transition(to S, opts []TransitionOption) (Transition[S, C], []string, error) {
	cfg := &transitionConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	t := Transition[S, C]{Target: to}
	if cfg.guard != nil {
		g, ok := cfg.guard.(Guard[C])
		if !ok {
			return t, nil, fmt.Errorf("guard: %w", ErrHookTypeMismatch)
		}
		t.Guard = g
	}
	if cfg.action != nil {
		a, ok := cfg.action.(Action[C])
		if !ok {
			return t, nil, fmt.Errorf("action: %w", ErrHookTypeMismatch)
		}
		t.Action = a
	}
	if cfg.resolve != nil {
		r, ok := cfg.resolve.(Resolver[S, C])
		if !ok {
			return t, nil, fmt.Errorf("resolver: %w", ErrHookTypeMismatch)
		}
		t.Resolve = r
	}
	return t, cfg.except, nil
}
