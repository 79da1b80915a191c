package onboarding

import (
	"slices"
	"time"
)

// State names a node of the onboarding flow.
type State string

const (
	StateStart             State = "START"
	StateOrganizationSetup State = "ORGANIZATION_SETUP"
	StateProfileSetup      State = "PROFILE_SETUP"
	StatePreferences       State = "PREFERENCES"
	StateCompleted         State = "COMPLETED"
	StateError             State = "ERROR"
)

// States lists every state in flow order.
var States = []State{
	StateStart,
	StateOrganizationSetup,
	StateProfileSetup,
	StatePreferences,
	StateCompleted,
	StateError,
}

// Event names an input of the onboarding flow.
type Event string

const (
	EventBegin                Event = "BEGIN"
	EventOrgCompleted         Event = "ORG_COMPLETED"
	EventProfileCompleted     Event = "PROFILE_COMPLETED"
	EventPreferencesCompleted Event = "PREFERENCES_COMPLETED"
	EventSkip                 Event = "SKIP"
	EventBack                 Event = "BACK"
	EventErrorOccurred        Event = "ERROR_OCCURRED"
	EventRetry                Event = "RETRY"
	EventReset                Event = "RESET"
)

// Events lists every event the flow understands.
var Events = []Event{
	EventBegin,
	EventOrgCompleted,
	EventProfileCompleted,
	EventPreferencesCompleted,
	EventSkip,
	EventBack,
	EventErrorOccurred,
	EventRetry,
	EventReset,
}

// ParseEvent matches name against the known events.
func ParseEvent(name string) (Event, bool) {
	e := Event(name)
	return e, slices.Contains(Events, e)
}

// StepSet is a sorted set of step names.
type StepSet []string

func NewStepSet(steps ...string) StepSet {
	var s StepSet
	for _, step := range steps {
		s.Add(step)
	}
	return s
}

func (s StepSet) Has(step string) bool {
	_, found := slices.BinarySearch(s, step)
	return found
}

func (s *StepSet) Add(step string) {
	i, found := slices.BinarySearch(*s, step)
	if !found {
		*s = slices.Insert(*s, i, step)
	}
}

func (s *StepSet) Remove(step string) {
	if i, found := slices.BinarySearch(*s, step); found {
		*s = slices.Delete(*s, i, i+1)
	}
}

func (s StepSet) Len() int {
	return len(s)
}

// FlowError is one entry of the error history.
type FlowError struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Failure is present exactly while the flow is in StateError.
type Failure struct {
	Message       string    `json:"message"`
	PreviousState State     `json:"previousState"`
	At            time.Time `json:"at"`
}

// Context is the data carried by the onboarding machine.
type Context struct {
	UserID         string      `json:"userId"`
	OrganizationID string      `json:"organizationId,omitempty"`
	CompletedSteps StepSet     `json:"completedSteps"`
	SkippedSteps   StepSet     `json:"skippedSteps"`
	CurrentStep    int         `json:"currentStep"`
	TotalSteps     int         `json:"totalSteps"`
	IsComplete     bool        `json:"isComplete"`
	StartedAt      *time.Time  `json:"startedAt,omitempty"`
	CompletedAt    *time.Time  `json:"completedAt,omitempty"`
	Errors         []FlowError `json:"errors"`
	Failure        *Failure    `json:"failure,omitempty"`
}

// NewContext returns the seed context for a user.
func NewContext(userID, organizationID string) Context {
	return Context{
		UserID:         userID,
		OrganizationID: organizationID,
		CompletedSteps: StepSet{},
		SkippedSteps:   StepSet{},
		TotalSteps:     len(Steps),
		Errors:         []FlowError{},
	}
}

// Clone returns a deep copy, so the machine never shares slices or pointers
// with callers.
func (c Context) Clone() Context {
	cp := c
	cp.CompletedSteps = slices.Clone(c.CompletedSteps)
	cp.SkippedSteps = slices.Clone(c.SkippedSteps)
	cp.Errors = slices.Clone(c.Errors)
	if c.StartedAt != nil {
		t := *c.StartedAt
		cp.StartedAt = &t
	}
	if c.CompletedAt != nil {
		t := *c.CompletedAt
		cp.CompletedAt = &t
	}
	if c.Failure != nil {
		f := *c.Failure
		cp.Failure = &f
	}
	return cp
}

// Payloads accepted by Send.
type (
	// BeginPayload seeds identity fields when the flow starts.
	BeginPayload struct {
		UserID         string
		OrganizationID string
	}

	// ErrorPayload carries the message recorded by ERROR_OCCURRED. A plain
	// error, string or map with an "error" key is accepted as well.
	ErrorPayload struct {
		Error string `json:"error"`
	}
)
