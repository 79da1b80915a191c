package statemachine

import (
	"context"
	"time"
)

// Guard decides whether a transition may fire. It receives a private copy of
// the pre-transition context, so mutating it has no effect on the machine.
type Guard[C any] func(ctx context.Context, c C, payload any) bool

// Action executes side effects during a transition. It mutates the in-progress
// draft of the context; returning an error aborts the whole transition.
type Action[C any] func(ctx context.Context, c *C, payload any) error

// Resolver computes a transition target at send time from the pre-transition context.
type Resolver[S ~string, C any] func(c C, payload any) S

// Transition describes where an event leads from a given state.
type Transition[S ~string, C any] struct {
	Target  S
	Resolve Resolver[S, C] // Overrides Target when set
	Guard   Guard[C]
	Action  Action[C]
}

// StateNode is the immutable definition of a single state.
type StateNode[S ~string, E ~string, C any] struct {
	On    map[E]Transition[S, C]
	Entry Action[C]
	Exit  Action[C]
}

// Cloner is implemented by context types that know how to deep-copy themselves.
type Cloner[C any] interface {
	Clone() C
}

// Result classifies the outcome of a Send call.
type Result string

const (
	ResultAccepted  Result = "accepted"
	ResultRejected  Result = "rejected"
	ResultUnhandled Result = "unhandled"
	ResultFailed    Result = "failed"
)

// Attempt is reported to observers after every Send, whatever its outcome.
type Attempt struct {
	Event    string
	From     string
	To       string
	Result   Result
	Err      error
	Duration time.Duration
}

// Observer receives transition attempts. It runs outside the machine lock and
// must not block; panics are recovered and logged.
type Observer func(ctx context.Context, a Attempt)
