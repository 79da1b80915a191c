package onboarding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/async"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/identity"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/statemachine"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/telemetry"
)

// EventDraftSaved is tracked after every auto-save attempt.
const EventDraftSaved = "onboarding_draft_saved"

// DefaultGuardTimeout bounds each async guard.
const DefaultGuardTimeout = 5 * time.Second

// Navigator performs navigation requests. It must not block.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, route string)

func (f NavigatorFunc) Navigate(ctx context.Context, route string) {
	f(ctx, route)
}

// AsyncGuard is an extra, possibly slow, check run before an event is sent.
// Returning false or an error rejects the event.
type AsyncGuard func(ctx context.Context, c ob.Context, payload any) (bool, error)

// Deps are the collaborators of a Flow. Store is required.
type Deps struct {
	Store     *draft.Store
	Identity  identity.Provider
	Navigator Navigator
	Tracker   telemetry.Tracker
	Logger    *slog.Logger
}

// Capabilities tell the UI which actions would currently be accepted.
type Capabilities struct {
	CanGoBack  bool `json:"canGoBack"`
	CanSkip    bool `json:"canSkip"`
	CanProceed bool `json:"canProceed"`
}

// View is a point-in-time snapshot of a flow.
type View struct {
	State        ob.State     `json:"state"`
	Route        string       `json:"route"`
	Context      ob.Context   `json:"context"`
	Progress     ob.Progress  `json:"progress"`
	Capabilities Capabilities `json:"capabilities"`
}

// Option configures a Flow.
type Option func(*Flow)

// WithMachineOptions passes options to onboarding.NewMachine, e.g. a policy.
func WithMachineOptions(opts ...ob.Option) Option {
	return func(f *Flow) {
		f.machineOpts = append(f.machineOpts, opts...)
	}
}

// WithAsyncGuard adds a guard for event. Guards of one event run one after
// the other in the order they were added; the first rejection wins.
func WithAsyncGuard(event ob.Event, g AsyncGuard) Option {
	return func(f *Flow) {
		if g != nil {
			f.guards[event] = append(f.guards[event], g)
		}
	}
}

// WithGuardTimeout bounds each async guard.
func WithGuardTimeout(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.guardTimeout = d
		}
	}
}

// WithAutoSaveDebounce sets the debounce of auto-savers created by the flow.
func WithAutoSaveDebounce(d time.Duration) Option {
	return func(f *Flow) {
		if d > 0 {
			f.debounce = d
		}
	}
}

// WithLocation sets the location the UI currently shows.
func WithLocation(location string) Option {
	return func(f *Flow) {
		f.location = location
	}
}

// Flow drives one user's onboarding: it owns the state machine, persists
// drafts, pushes routes to the navigator and reports every transition.
type Flow struct {
	store     *draft.Store
	identity  identity.Provider
	navigator Navigator
	tracker   telemetry.Tracker
	logger    *slog.Logger

	machineOpts  []ob.Option
	guards       map[ob.Event][]AsyncGuard
	guardTimeout time.Duration
	debounce     time.Duration
	machine      *ob.Machine

	// sendMu serializes transitions together with their async guards.
	sendMu sync.Mutex

	mu       sync.Mutex
	location string
	savers   map[string]*draft.AutoSaver
	started  bool
	closed   bool
	stop     context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a flow in START. Call Start to begin it once the user is known.
func New(deps Deps, opts ...Option) (*Flow, error) {
	if deps.Store == nil {
		return nil, ErrMissingStore
	}
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With(logger.Component("onboarding"))

	f := &Flow{
		store:        deps.Store,
		identity:     deps.Identity,
		navigator:    deps.Navigator,
		tracker:      telemetry.Safe(deps.Tracker, log),
		logger:       log,
		guards:       make(map[ob.Event][]AsyncGuard),
		guardTimeout: DefaultGuardTimeout,
		debounce:     draft.DefaultDebounce,
		savers:       make(map[string]*draft.AutoSaver),
	}
	if f.navigator == nil {
		f.navigator = NavigatorFunc(func(context.Context, string) {})
	}
	for _, opt := range opts {
		opt(f)
	}

	machineOpts := append([]ob.Option{}, f.machineOpts...)
	machineOpts = append(machineOpts, ob.WithObserver(f.observe), ob.WithLogger(log))
	m, err := ob.NewMachine(machineOpts...)
	if err != nil {
		return nil, fmt.Errorf("build onboarding machine: %w", err)
	}
	f.machine = m
	return f, nil
}

// Start begins the flow as soon as the identity provider reports a ready,
// signed-in user. When that is already the case BEGIN is sent before Start
// returns; otherwise Start watches the provider in the background.
func (f *Flow) Start(ctx context.Context) error {
	if f.identity == nil {
		return ErrMissingIdentity
	}

	f.mu.Lock()
	switch {
	case f.closed:
		f.mu.Unlock()
		return ErrClosed
	case f.started:
		f.mu.Unlock()
		return ErrAlreadyStarted
	}
	f.started = true
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.stop = cancel
	f.mu.Unlock()

	if f.begin(ctx, f.identity.Current()) {
		cancel()
		return nil
	}

	updates := f.identity.Subscribe(watchCtx)
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		defer cancel()
		for state := range updates {
			if f.begin(watchCtx, state) {
				return
			}
		}
	}()
	return nil
}

// begin reports whether the flow has left START.
func (f *Flow) begin(ctx context.Context, state identity.AuthState) bool {
	if !state.Authenticated() {
		return false
	}
	if !f.machine.Matches(ob.StateStart) {
		return true
	}
	ctx = WithUserID(ctx, state.UserID)
	if _, err := f.Send(ctx, ob.EventBegin, ob.BeginPayload{
		UserID:         state.UserID,
		OrganizationID: state.OrganizationID,
	}); err != nil {
		f.logger.ErrorContext(ctx, "failed to begin onboarding", logger.Error(err))
	}
	return !f.machine.Matches(ob.StateStart)
}

// Send delivers event to the machine after the async guards registered for
// it have passed.
func (f *Flow) Send(ctx context.Context, event ob.Event, payload any) (bool, error) {
	if f.isClosed() {
		return false, ErrClosed
	}

	f.sendMu.Lock()
	defer f.sendMu.Unlock()

	if guards := f.guards[event]; len(guards) > 0 && f.machine.Can(ctx, event, payload) {
		start := time.Now()
		if ok, err := f.runAsyncGuards(ctx, event, guards, payload); !ok {
			f.trackRejection(ctx, event, time.Since(start), err)
			return false, nil
		}
	}

	ok, err := f.machine.Send(ctx, event, payload)
	if ok {
		f.navigate(ctx)
	}
	return ok, err
}

func (f *Flow) runAsyncGuards(ctx context.Context, event ob.Event, guards []AsyncGuard, payload any) (bool, error) {
	snapshot := f.machine.Context()
	for i, guard := range guards {
		gctx, cancel := context.WithTimeout(ctx, f.guardTimeout)
		future := async.Async(gctx, snapshot.Clone(), func(ctx context.Context, c ob.Context) (bool, error) {
			return guard(ctx, c, payload)
		})
		ok, err := future.AwaitContext(gctx)
		cancel()

		if err != nil {
			f.logger.WarnContext(ctx, "async guard failed",
				logger.Event(string(event)),
				slog.Int("guard", i),
				logger.Error(err),
			)
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (f *Flow) observe(ctx context.Context, a statemachine.Attempt) {
	props := map[string]any{
		telemetry.PropEvent:      a.Event,
		telemetry.PropFrom:       a.From,
		telemetry.PropTo:         a.To,
		telemetry.PropResult:     string(a.Result),
		telemetry.PropDurationMS: float64(a.Duration) / float64(time.Millisecond),
	}
	if a.Err != nil {
		props[telemetry.PropError] = a.Err.Error()
	}
	if id := f.machine.Context().UserID; id != "" {
		props[telemetry.PropUserID] = id
	}
	f.tracker.Track(ctx, telemetry.EventTransition, props)

	f.logger.DebugContext(ctx, "onboarding transition",
		logger.Event(a.Event),
		logger.Transition(a.From, a.To),
		logger.Result(string(a.Result)),
		logger.Duration(a.Duration),
		logger.Error(a.Err),
	)
}

func (f *Flow) trackRejection(ctx context.Context, event ob.Event, d time.Duration, err error) {
	state := string(f.machine.State())
	f.observe(ctx, statemachine.Attempt{
		Event:    string(event),
		From:     state,
		To:       state,
		Result:   statemachine.ResultRejected,
		Err:      err,
		Duration: d,
	})
}

func (f *Flow) navigate(ctx context.Context) bool {
	route := ob.Route(f.machine.State())

	f.mu.Lock()
	if route == f.location {
		f.mu.Unlock()
		return false
	}
	f.location = route
	f.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			f.logger.WarnContext(ctx, "navigator panicked", slog.String("route", route), slog.Any("panic", r))
		}
	}()
	f.navigator.Navigate(ctx, route)
	return true
}

// Sync records where the UI is and requests navigation when that differs
// from the route of the current state. It returns the target route and
// whether navigation was requested. Locations never change the state.
func (f *Flow) Sync(ctx context.Context, location string) (string, bool) {
	f.mu.Lock()
	f.location = location
	f.mu.Unlock()

	return ob.Route(f.machine.State()), f.navigate(ctx)
}

func (f *Flow) State() ob.State {
	return f.machine.State()
}

// Context returns a copy of the flow context.
func (f *Flow) Context() ob.Context {
	return f.machine.Context()
}

// Route is the location of the current state.
func (f *Flow) Route() string {
	return ob.Route(f.machine.State())
}

func (f *Flow) Progress() ob.Progress {
	return ob.ProgressOf(f.machine.Context())
}

// Capabilities asks the machine what it would accept right now. CanProceed
// evaluates the current step's completion event against the stored draft.
// Events the machine allows are also run through their async guards, so a
// true capability means Send would accept the same event at this moment.
func (f *Flow) Capabilities(ctx context.Context) Capabilities {
	caps := Capabilities{
		CanGoBack: f.allows(ctx, ob.EventBack, nil),
		CanSkip:   f.allows(ctx, ob.EventSkip, nil),
	}

	state := f.machine.State()
	if state == ob.StateStart {
		caps.CanProceed = f.allows(ctx, ob.EventBegin, nil)
		return caps
	}
	step, ok := ob.StepForState(state)
	if !ok {
		return caps
	}
	event, _ := ob.CompletionEvent(step)
	var payload any
	if raw, ok := f.store.LoadRaw(ctx, step); ok {
		payload = raw
	}
	caps.CanProceed = f.allows(ctx, event, payload)
	return caps
}

// allows reports whether event would pass both the machine guards and the
// registered async guards. Nothing is sent or tracked.
func (f *Flow) allows(ctx context.Context, event ob.Event, payload any) bool {
	if !f.machine.Can(ctx, event, payload) {
		return false
	}
	guards := f.guards[event]
	if len(guards) == 0 {
		return true
	}
	ok, err := f.runAsyncGuards(ctx, event, guards, payload)
	return err == nil && ok
}

// View collects state, route, context, progress and capabilities.
func (f *Flow) View(ctx context.Context) View {
	state, c := f.machine.Snapshot()
	return View{
		State:        state,
		Route:        ob.Route(state),
		Context:      c,
		Progress:     ob.ProgressOf(c),
		Capabilities: f.Capabilities(ctx),
	}
}

// CompleteStep stores data as the final draft of the current step and sends
// the step's completion event. The draft is removed only when the event is
// accepted, so a rejected or failed attempt can be resumed later.
func (f *Flow) CompleteStep(ctx context.Context, data any) (bool, error) {
	step, ok := ob.StepForState(f.machine.State())
	if !ok {
		return false, ErrNoActiveStep
	}
	event, _ := ob.CompletionEvent(step)

	// A pending debounced write would otherwise land after the submitted value.
	f.discardSaver(step)
	if !f.store.Save(ctx, step, data) {
		f.logger.WarnContext(ctx, "final draft was not persisted", logger.Step(step))
	}

	accepted, err := f.Send(ctx, event, data)
	if err != nil || !accepted {
		return accepted, err
	}

	_ = f.store.ClearStep(ctx, step)
	return true, nil
}

// Skip skips the current step when the policy allows it.
func (f *Flow) Skip(ctx context.Context) (bool, error) {
	return f.Send(ctx, ob.EventSkip, nil)
}

// Back returns to the previous step.
func (f *Flow) Back(ctx context.Context) (bool, error) {
	return f.Send(ctx, ob.EventBack, nil)
}

// ReportError moves the flow into ERROR, remembering the current state.
func (f *Flow) ReportError(ctx context.Context, cause error) (bool, error) {
	payload := ob.ErrorPayload{}
	if cause != nil {
		payload.Error = cause.Error()
	}
	f.logger.ErrorContext(ctx, "onboarding error reported",
		logger.State(string(f.machine.State())),
		logger.Error(cause),
	)
	return f.Send(ctx, ob.EventErrorOccurred, payload)
}

// Retry leaves ERROR for the state the error interrupted.
func (f *Flow) Retry(ctx context.Context) (bool, error) {
	return f.Send(ctx, ob.EventRetry, nil)
}

// Reset returns to START and removes every draft of the flow.
func (f *Flow) Reset(ctx context.Context) (bool, error) {
	accepted, err := f.Send(ctx, ob.EventReset, nil)
	if err != nil || !accepted {
		return accepted, err
	}

	f.mu.Lock()
	savers := f.savers
	f.savers = make(map[string]*draft.AutoSaver)
	f.mu.Unlock()
	for _, s := range savers {
		s.Close()
	}

	if err := f.store.Clear(ctx); err != nil {
		f.logger.WarnContext(ctx, "failed to clear drafts on reset", logger.Error(err))
	}
	return true, nil
}

// Dispatch routes event to the matching operation. Completion events go
// through CompleteStep and payloads of ERROR_OCCURRED become the message.
func (f *Flow) Dispatch(ctx context.Context, event ob.Event, payload json.RawMessage) (bool, error) {
	var data any
	if len(payload) > 0 {
		data = payload
	}

	switch event {
	case ob.EventOrgCompleted, ob.EventProfileCompleted, ob.EventPreferencesCompleted:
		step, ok := ob.StepForState(f.machine.State())
		if expected, _ := ob.CompletionEvent(step); !ok || expected != event {
			return f.Send(ctx, event, data)
		}
		return f.CompleteStep(ctx, data)
	case ob.EventSkip:
		return f.Skip(ctx)
	case ob.EventBack:
		return f.Back(ctx)
	case ob.EventErrorOccurred:
		var p ob.ErrorPayload
		if data != nil && json.Unmarshal(payload, &p) != nil && json.Unmarshal(payload, &p.Error) != nil {
			p.Error = string(payload)
		}
		if p.Error == "" {
			return f.ReportError(ctx, nil)
		}
		return f.ReportError(ctx, errors.New(p.Error))
	case ob.EventRetry:
		return f.Retry(ctx)
	case ob.EventReset:
		return f.Reset(ctx)
	case ob.EventBegin:
		return f.Send(ctx, event, ob.BeginPayload{})
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
}

// Draft decodes the stored draft of step into dst.
func (f *Flow) Draft(ctx context.Context, step string, dst any) bool {
	return f.store.Load(ctx, step, dst)
}

// DraftRaw returns the stored draft of step as JSON.
func (f *Flow) DraftRaw(ctx context.Context, step string) (json.RawMessage, bool) {
	return f.store.LoadRaw(ctx, step)
}

// DraftSavedAt reports when the draft of step was last written.
func (f *Flow) DraftSavedAt(ctx context.Context, step string) (time.Time, bool) {
	w, err := f.store.Inspect(ctx, step)
	if err != nil || w.Timestamp == 0 {
		return time.Time{}, false
	}
	return w.SavedAt(), true
}

// ClearDraft cancels pending auto-saves of step and removes its draft.
func (f *Flow) ClearDraft(ctx context.Context, step string) error {
	if _, ok := f.store.Schema(step); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	f.discardSaver(step)
	return f.store.ClearStep(ctx, step)
}

// CheckDraft validates data against the current schema of step.
func (f *Flow) CheckDraft(step string, data json.RawMessage) error {
	schema, ok := f.store.Schema(step)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}
	return schema.Check(data)
}

// AutoSaver returns the debounced saver of step, creating it on first use.
// The flow closes it when the step completes, on reset and on Close.
func (f *Flow) AutoSaver(step string) (*draft.AutoSaver, error) {
	if _, ok := f.store.Schema(step); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, step)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if s, ok := f.savers[step]; ok {
		return s, nil
	}

	s := draft.NewAutoSaver(f.store, step,
		draft.WithDebounce(f.debounce),
		draft.WithOnSaved(func(state draft.AutoSaveState) {
			props := map[string]any{telemetry.PropStep: step, telemetry.PropResult: "saved"}
			if state.Err != "" {
				props[telemetry.PropResult] = "failed"
				props[telemetry.PropError] = state.Err
			}
			f.tracker.Track(context.Background(), EventDraftSaved, props)
		}),
	)
	f.savers[step] = s
	return s, nil
}

func (f *Flow) discardSaver(step string) {
	f.mu.Lock()
	s, ok := f.savers[step]
	delete(f.savers, step)
	f.mu.Unlock()
	if ok {
		s.Close()
	}
}

func (f *Flow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Close stops watching the identity provider and cancels pending auto-saves.
// It is safe to call more than once.
func (f *Flow) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	stop := f.stop
	savers := f.savers
	f.savers = nil
	f.mu.Unlock()

	if stop != nil {
		stop()
	}
	for _, s := range savers {
		s.Close()
	}
	f.wg.Wait()
}
