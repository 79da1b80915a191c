package onboarding

import (
	"encoding/json"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/validator"
)

const (
	StepOrganization = "organization"
	StepProfile      = "profile"
	StepPreferences  = "preferences"
)

// Steps lists the wizard steps in order.
var Steps = []string{StepOrganization, StepProfile, StepPreferences}

var (
	stepStates = map[string]State{
		StepOrganization: StateOrganizationSetup,
		StepProfile:      StateProfileSetup,
		StepPreferences:  StatePreferences,
	}
	stepEvents = map[string]Event{
		StepOrganization: EventOrgCompleted,
		StepProfile:      EventProfileCompleted,
		StepPreferences:  EventPreferencesCompleted,
	}
)

// StepForState returns the step edited in state s.
func StepForState(s State) (string, bool) {
	for step, state := range stepStates {
		if state == s {
			return step, true
		}
	}
	return "", false
}

// StateForStep returns the state that edits step.
func StateForStep(step string) (State, bool) {
	s, ok := stepStates[step]
	return s, ok
}

// CompletionEvent returns the event that completes step.
func CompletionEvent(step string) (Event, bool) {
	e, ok := stepEvents[step]
	return e, ok
}

// StepNumber is the 1-based position of step, or 0 when unknown.
func StepNumber(step string) int {
	for i, s := range Steps {
		if s == step {
			return i + 1
		}
	}
	return 0
}

func isStep(step string) bool {
	return StepNumber(step) > 0
}

// OrganizationDraft is the form data of the organization step.
type OrganizationDraft struct {
	Name           string `json:"name"`
	Slug           string `json:"slug,omitempty"`
	Website        string `json:"website,omitempty"`
	Size           string `json:"size,omitempty"`
	Industry       string `json:"industry,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

var organizationSizes = []string{"1", "2-10", "11-50", "51-200", "201-1000", "1000+"}

func (o OrganizationDraft) Validate() error {
	return validator.Apply(
		validator.MaxLen("name", o.Name, 100),
		validator.Optional(o.Slug, validator.ValidSlug("slug", o.Slug)),
		validator.Optional(o.Website, validator.ValidURL("website", o.Website)),
		validator.Optional(o.Size, validator.InList("size", o.Size, organizationSizes)),
		validator.MaxLen("industry", o.Industry, 100),
	)
}

// ProfileDraft is the form data of the profile step.
type ProfileDraft struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Role      string   `json:"role"`
	Email     string   `json:"email,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
	Language  string   `json:"language,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

func (p ProfileDraft) Validate() error {
	return validator.Apply(
		validator.MaxLen("firstName", p.FirstName, 100),
		validator.MaxLen("lastName", p.LastName, 100),
		validator.MaxLen("role", p.Role, 100),
		validator.Optional(p.Email, validator.ValidEmail("email", p.Email)),
		validator.Optional(p.Timezone, validator.ValidTimezone("timezone", p.Timezone)),
		validator.Optional(p.Language, validator.ValidLanguage("language", p.Language)),
		validator.MaxItems("interests", p.Interests, 10),
	)
}

// NotificationSettings groups the notification toggles of PreferencesDraft.
type NotificationSettings struct {
	Email   bool `json:"email"`
	Product bool `json:"product"`
	Digest  bool `json:"digest"`
}

// PreferencesDraft is the form data of the preferences step.
type PreferencesDraft struct {
	Theme         string               `json:"theme,omitempty"`
	Newsletter    bool                 `json:"newsletter"`
	Notifications NotificationSettings `json:"notifications"`
}

var themes = []string{"light", "dark", "system"}

func (p PreferencesDraft) Validate() error {
	return validator.Apply(
		validator.Optional(p.Theme, validator.InList("theme", p.Theme, themes)),
	)
}

// Schemas returns the current schema of every step. Profile drafts are
// partial: they are kept while being filled in and the completion guard
// decides when they are good enough.
func Schemas() draft.Schemas {
	return draft.Schemas{
		StepOrganization: draft.NewSchema[OrganizationDraft]("name"),
		StepProfile:      draft.NewSchema[ProfileDraft]("firstName", "lastName", "role").Partial(),
		StepPreferences:  draft.NewSchema[PreferencesDraft](),
	}
}

// payloadFields flattens a step payload into its JSON fields.
func payloadFields(payload any) map[string]any {
	var raw []byte
	switch v := payload.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		raw = b
	}
	var fields map[string]any
	if json.Unmarshal(raw, &fields) != nil {
		return nil
	}
	return fields
}
