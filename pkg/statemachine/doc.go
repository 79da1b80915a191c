// Package statemachine provides a generic finite-state-machine engine that
// owns both the current state and a typed context value.
//
// A machine is parameterised by its state type S, event type E (both string
// based) and context type C. Each declared state has a transition table keyed
// by event plus optional entry and exit actions. The engine handles:
//  1. Transition lookup for the current state
//  2. Guard evaluation against a private copy of the context
//  3. Exit, transition and entry actions applied to a single mutable draft
//  4. Atomic commit of the draft, or full rollback when any hook fails
//
// # Architecture
//
// Machine keeps the committed (state, context) pair behind a RWMutex. Send
// clones the context, runs the hooks of the transition in a fixed order
// (exit of the source state, the transition action, entry of the target
// state) against that clone and swaps it in only if every hook returned nil.
// Callers never hold a reference to the live context: Context and Snapshot
// return copies, and Reset restores a fresh copy of the original seed.
//
// Contexts are copied with their Clone method when they implement Cloner,
// with a function supplied through WithCloner, or with reflection-based deep
// copy otherwise.
//
// # Usage
//
//	type Ctx struct{ Approvals int }
//
//	const (
//	    Draft    State = "draft"
//	    InReview State = "in_review"
//	    Submit   Event = "submit"
//	)
//
//	m := statemachine.NewBuilder[State, Event](Draft, Ctx{}).
//	    State(Draft, nil, nil).
//	    State(InReview, nil, nil).
//	    On(Draft, Submit, InReview,
//	        statemachine.WithAction(func(ctx context.Context, c *Ctx, _ any) error {
//	            c.Approvals++
//	            return nil
//	        }),
//	    ).
//	    MustBuild()
//
//	ok, err := m.Send(ctx, Submit, nil)
//
// # Guards and Actions
//
// Guard rejection is not an error: Send returns false and nothing changes.
// Can performs the same evaluation without mutation, so it is suitable for
// computing UI capability flags. An action error or panic is returned as an
// *ActionError wrapping ErrActionFailed.
//
// # Global Transitions
//
// Builder.Global registers a transition for every declared state at build
// time (for example an "error from anywhere" escape hatch). The engine itself
// has no special cases for it.
//
// # Observers
//
// Observers registered with WithObserver receive an Attempt after every Send,
// including rejected and unhandled events. They run outside the lock.
package statemachine
