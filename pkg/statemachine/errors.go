package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownState      = errors.New("statemachine: state is not declared")
	ErrActionFailed      = errors.New("statemachine: action failed")
	ErrGuardPanicked     = errors.New("statemachine: guard panicked")
	ErrHookTypeMismatch  = errors.New("statemachine: hook does not match machine context type")
	ErrClonerMismatch    = errors.New("statemachine: cloner does not match machine context type")
	ErrDuplicateHandler  = errors.New("statemachine: event already handled in state")
	ErrEmptyStateMachine = errors.New("statemachine: no states declared")
)

// Phase names the hook that was running when a transition failed.
type Phase string

const (
	PhaseExit   Phase = "exit"
	PhaseAction Phase = "action"
	PhaseEntry  Phase = "entry"
)

// ActionError reports a failing or panicking hook. The transition it belongs
// to has been rolled back when this error is returned.
type ActionError struct {
	State string
	Event string
	Phase Phase
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %s hook of state '%s' on event '%s': %v", ErrActionFailed, e.Phase, e.State, e.Event, e.Err)
}

func (e *ActionError) Unwrap() []error {
	return []error{ErrActionFailed, e.Err}
}

func newActionError(state, event string, phase Phase, err error) *ActionError {
	return &ActionError{State: state, Event: event, Phase: phase, Err: err}
}

func IsActionError(err error) bool {
	var e *ActionError
	return errors.As(err, &e)
}
