package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/statemachine"
)

// Machine is the onboarding state machine.
type Machine = statemachine.Machine[State, Event, Context]

type flow struct {
	policy  Policy
	schemas draft.Schemas
	now     func() time.Time
	newID   func() string
	seed    Context
	opts    []statemachine.Option
}

// Option configures NewMachine.
type Option func(*flow)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) Option {
	return func(f *flow) {
		f.policy = p.clone()
	}
}

// WithSchemas replaces the step schemas used by the completion guards.
func WithSchemas(s draft.Schemas) Option {
	return func(f *flow) {
		if s != nil {
			f.schemas = s
		}
	}
}

// WithClock sets the time source of StartedAt, CompletedAt and error records.
func WithClock(now func() time.Time) Option {
	return func(f *flow) {
		if now != nil {
			f.now = now
		}
	}
}

// WithSeed sets the context the machine starts from and resets to.
func WithSeed(c Context) Option {
	return func(f *flow) {
		f.seed = c.Clone()
	}
}

// WithObserver forwards every transition attempt to obs.
func WithObserver(obs statemachine.Observer) Option {
	return func(f *flow) {
		f.opts = append(f.opts, statemachine.WithObserver(obs))
	}
}

// WithLogger sets the logger of the underlying machine.
func WithLogger(l *slog.Logger) Option {
	return func(f *flow) {
		f.opts = append(f.opts, statemachine.WithLogger(l))
	}
}

// NewMachine builds the onboarding flow:
//
//	START --BEGIN--> ORGANIZATION_SETUP --ORG_COMPLETED--> PROFILE_SETUP
//	PROFILE_SETUP --PROFILE_COMPLETED|SKIP--> PREFERENCES
//	PREFERENCES --PREFERENCES_COMPLETED|SKIP--> COMPLETED
//	PROFILE_SETUP, PREFERENCES --BACK--> previous step
//	any --ERROR_OCCURRED--> ERROR --RETRY--> previous state
//	any --RESET--> START
func NewMachine(opts ...Option) (*Machine, error) {
	f := &flow{
		policy:  DefaultPolicy(),
		schemas: Schemas(),
		now:     time.Now,
		newID:   uuid.NewString,
		seed:    NewContext("", ""),
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.policy.Validate(); err != nil {
		return nil, err
	}
	for _, step := range Steps {
		if _, ok := f.schemas[step]; !ok {
			return nil, fmt.Errorf("%w: no schema for %q", ErrUnknownStep, step)
		}
	}

	b := statemachine.NewBuilder[State, Event](StateStart, f.seed).
		State(StateStart, nil, nil).
		On(StateStart, EventBegin, StateOrganizationSetup,
			statemachine.WithAction(f.begin)).
		State(StateCompleted, f.enterCompleted, nil).
		State(StateError, nil, nil).
		On(StateError, EventRetry, StateError,
			statemachine.WithGuard(canRetry),
			statemachine.WithResolver(retryTarget),
			statemachine.WithAction(clearFailure))

	for i, step := range Steps {
		from := stepStates[step]
		next := StateCompleted
		if i+1 < len(Steps) {
			next = stepStates[Steps[i+1]]
		}

		b.On(from, stepEvents[step], next,
			statemachine.WithGuard(f.completionGuard(step)),
			statemachine.WithAction(f.completeStep(step)))
		b.On(from, EventSkip, next,
			statemachine.WithGuard(f.skipGuard(step)),
			statemachine.WithAction(skipStep(step)))
		if i > 0 {
			b.On(from, EventBack, stepStates[Steps[i-1]])
		}
	}

	// One error transition per state, each remembering where it came from.
	for _, s := range States {
		if s == StateError {
			continue
		}
		b.On(s, EventErrorOccurred, StateError, statemachine.WithAction(f.recordFailure(s)))
	}

	b.Global(EventReset, StateStart, statemachine.WithAction(resetProgress))

	return b.With(f.opts...).Build()
}

// MustNewMachine is like NewMachine but panics on error.
func MustNewMachine(opts ...Option) *Machine {
	m, err := NewMachine(opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to build onboarding machine: %v", err))
	}
	return m
}

func (f *flow) begin(_ context.Context, c *Context, payload any) error {
	var seed BeginPayload
	switch p := payload.(type) {
	case BeginPayload:
		seed = p
	case *BeginPayload:
		if p != nil {
			seed = *p
		}
	}
	if seed.UserID != "" {
		c.UserID = seed.UserID
	}
	if seed.OrganizationID != "" {
		c.OrganizationID = seed.OrganizationID
	}
	if c.StartedAt == nil {
		now := f.now()
		c.StartedAt = &now
	}
	c.TotalSteps = len(Steps)
	advance(c, 1)
	return nil
}

func (f *flow) completionGuard(step string) statemachine.Guard[Context] {
	schema := f.schemas[step]
	return func(_ context.Context, _ Context, payload any) bool {
		return schema.Completion(payload) >= f.policy.MinCompletion(step)
	}
}

func (f *flow) completeStep(step string) statemachine.Action[Context] {
	return func(_ context.Context, c *Context, payload any) error {
		c.CompletedSteps.Add(step)
		c.SkippedSteps.Remove(step)
		advance(c, StepNumber(step)+1)
		if step == StepOrganization {
			if id, ok := payloadFields(payload)["organizationId"].(string); ok && id != "" {
				c.OrganizationID = id
			}
		}
		return nil
	}
}

func (f *flow) skipGuard(step string) statemachine.Guard[Context] {
	return func(_ context.Context, c Context, _ any) bool {
		return f.policy.CanSkipStep(step, c)
	}
}

func skipStep(step string) statemachine.Action[Context] {
	return func(_ context.Context, c *Context, _ any) error {
		c.SkippedSteps.Add(step)
		c.CompletedSteps.Remove(step)
		advance(c, StepNumber(step)+1)
		return nil
	}
}

func (f *flow) enterCompleted(_ context.Context, c *Context, _ any) error {
	// Entry also runs when RETRY returns here, so it must not rewrite history.
	if !c.IsComplete {
		now := f.now()
		c.IsComplete = true
		c.CompletedAt = &now
	}
	c.CurrentStep = c.TotalSteps
	return nil
}

func (f *flow) recordFailure(from State) statemachine.Action[Context] {
	return func(_ context.Context, c *Context, payload any) error {
		now := f.now()
		msg := errorMessage(payload)
		c.Errors = append(c.Errors, FlowError{ID: f.newID(), Message: msg, Timestamp: now})
		c.Failure = &Failure{Message: msg, PreviousState: from, At: now}
		return nil
	}
}

func canRetry(_ context.Context, c Context, _ any) bool {
	return c.Failure != nil && c.Failure.PreviousState != "" && c.Failure.PreviousState != StateError
}

func retryTarget(c Context, _ any) State {
	if c.Failure == nil {
		return StateError
	}
	return c.Failure.PreviousState
}

func clearFailure(_ context.Context, c *Context, _ any) error {
	c.Failure = nil
	return nil
}

func resetProgress(_ context.Context, c *Context, _ any) error {
	*c = NewContext(c.UserID, c.OrganizationID)
	return nil
}

// advance moves the high-water mark forward, never past TotalSteps.
func advance(c *Context, step int) {
	step = min(step, c.TotalSteps)
	c.CurrentStep = max(c.CurrentStep, step)
}

func errorMessage(payload any) string {
	var msg string
	switch p := payload.(type) {
	case ErrorPayload:
		msg = p.Error
	case *ErrorPayload:
		if p != nil {
			msg = p.Error
		}
	case error:
		msg = p.Error()
	case string:
		msg = p
	case map[string]any:
		for _, key := range []string{"error", "message"} {
			if s, ok := p[key].(string); ok && s != "" {
				msg = s
				break
			}
		}
	}
	if msg == "" {
		return "unknown error"
	}
	return msg
}
