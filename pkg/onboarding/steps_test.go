package onboarding_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
)

func TestStepLookups(t *testing.T) {
	t.Parallel()

	for i, step := range onboarding.Steps {
		s, ok := onboarding.StateForStep(step)
		require.True(t, ok)
		back, ok := onboarding.StepForState(s)
		require.True(t, ok)
		assert.Equal(t, step, back)
		assert.Equal(t, i+1, onboarding.StepNumber(step))

		_, ok = onboarding.CompletionEvent(step)
		assert.True(t, ok)
	}

	_, ok := onboarding.StepForState(onboarding.StateCompleted)
	assert.False(t, ok)
	assert.Zero(t, onboarding.StepNumber("billing"))

	e, ok := onboarding.ParseEvent("SKIP")
	assert.True(t, ok)
	assert.Equal(t, onboarding.EventSkip, e)
	_, ok = onboarding.ParseEvent("skip")
	assert.False(t, ok)
}

func TestStepSet(t *testing.T) {
	t.Parallel()

	s := onboarding.NewStepSet("profile", "organization", "profile")
	assert.Equal(t, onboarding.StepSet{"organization", "profile"}, s)
	assert.True(t, s.Has("profile"))

	s.Remove("profile")
	s.Remove("missing")
	assert.False(t, s.Has("profile"))
	assert.Equal(t, 1, s.Len())
}

func TestContext_CloneDoesNotAlias(t *testing.T) {
	t.Parallel()

	m := newMachine(t)
	send(t, m, onboarding.EventBegin, nil)
	send(t, m, onboarding.EventOrgCompleted, map[string]any{"name": "Acme"})
	send(t, m, onboarding.EventErrorOccurred, "x")

	c := m.Context()
	c.CompletedSteps[0] = "tampered"
	c.Errors[0].Message = "tampered"
	c.Failure.Message = "tampered"
	*c.StartedAt = c.StartedAt.AddDate(-1, 0, 0)

	fresh := m.Context()
	assert.Equal(t, onboarding.StepSet{"organization"}, fresh.CompletedSteps)
	assert.Equal(t, "x", fresh.Errors[0].Message)
	assert.Equal(t, "x", fresh.Failure.Message)
	assert.Equal(t, epoch, *fresh.StartedAt)
}

func TestSchemas(t *testing.T) {
	t.Parallel()
	schemas := onboarding.Schemas()

	tests := []struct {
		step    string
		raw     string
		wantErr error
	}{
		{onboarding.StepOrganization, `{"name":"Acme","website":"https://acme.io","size":"2-10"}`, nil},
		{onboarding.StepOrganization, `{"website":"https://acme.io"}`, draft.ErrMissingRequired},
		{onboarding.StepOrganization, `{"name":"Acme","website":"acme"}`, draft.ErrSchemaMismatch},
		{onboarding.StepOrganization, `{"name":"Acme","size":"huge"}`, draft.ErrSchemaMismatch},
		{onboarding.StepProfile, `{"firstName":"Jane"}`, nil},
		{onboarding.StepProfile, `{"firstName":"Jane","timezone":"Europe/Berlin","language":"de-DE"}`, nil},
		{onboarding.StepProfile, `{"timezone":"Mars/Olympus"}`, draft.ErrSchemaMismatch},
		{onboarding.StepProfile, `{"email":"Jane <jane@example.com>"}`, draft.ErrSchemaMismatch},
		{onboarding.StepPreferences, `{}`, nil},
		{onboarding.StepPreferences, `{"theme":"dark","notifications":{"email":true}}`, nil},
		{onboarding.StepPreferences, `{"theme":"neon"}`, draft.ErrSchemaMismatch},
		{onboarding.StepPreferences, `{"newsletter":"yes"}`, draft.ErrSchemaMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.step+" "+tt.raw, func(t *testing.T) {
			t.Parallel()
			err := schemas[tt.step].Check(json.RawMessage(tt.raw))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRouteAndProgress(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/onboarding", onboarding.Route(onboarding.StateStart))
	assert.Equal(t, "/onboarding/profile", onboarding.Route(onboarding.StateProfileSetup))
	assert.Equal(t, onboarding.RouteDashboard, onboarding.Route(onboarding.StateCompleted))
	assert.Equal(t, "/onboarding", onboarding.Route("NOPE"))

	tests := []struct {
		name string
		ctx  onboarding.Context
		want onboarding.Progress
	}{
		{"not started", onboarding.Context{TotalSteps: 3}, onboarding.Progress{Current: 0, Total: 3, Percentage: 0, IsFirstStep: true}},
		{"first", onboarding.Context{CurrentStep: 1, TotalSteps: 3}, onboarding.Progress{Current: 1, Total: 3, Percentage: 33, IsFirstStep: true}},
		{"second", onboarding.Context{CurrentStep: 2, TotalSteps: 3}, onboarding.Progress{Current: 2, Total: 3, Percentage: 67}},
		{"last", onboarding.Context{CurrentStep: 3, TotalSteps: 3}, onboarding.Progress{Current: 3, Total: 3, Percentage: 100, IsLastStep: true}},
		{"zero total", onboarding.Context{}, onboarding.Progress{IsFirstStep: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, onboarding.ProgressOf(tt.ctx))
		})
	}
}
