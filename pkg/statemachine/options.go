package statemachine

import (
	"log/slog"
)

// Option configures a machine during construction.
type Option func(*options)

type options struct {
	cloner    any
	observers []Observer
	logger    *slog.Logger
}

// WithCloner sets the function used to deep-copy the context. Without it the
// machine uses the context's Clone method or falls back to reflection.
func WithCloner[C any](fn func(C) C) Option {
	return func(o *options) {
		if fn != nil {
			o.cloner = fn
		}
	}
}

// WithObserver registers a transition observer. Nil observers are ignored.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithLogger sets the logger used for recovered observer panics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// TransitionOption configures a single transition added through the Builder.
type TransitionOption func(*transitionConfig)

type transitionConfig struct {
	guard   any
	action  any
	resolve any
	except  []string
}

// WithGuard attaches a guard to a transition.
func WithGuard[C any](g Guard[C]) TransitionOption {
	return func(cfg *transitionConfig) {
		if g != nil {
			cfg.guard = g
		}
	}
}

// WithAction attaches a transition action.
func WithAction[C any](a Action[C]) TransitionOption {
	return func(cfg *transitionConfig) {
		if a != nil {
			cfg.action = a
		}
	}
}

// WithResolver replaces the static target with one computed at send time.
func WithResolver[S ~string, C any](r Resolver[S, C]) TransitionOption {
	return func(cfg *transitionConfig) {
		if r != nil {
			cfg.resolve = r
		}
	}
}

// Except excludes states from a Global transition.
func Except[S ~string](states ...S) TransitionOption {
	return func(cfg *transitionConfig) {
		for _, s := range states {
			cfg.except = append(cfg.except, string(s))
		}
	}
}
