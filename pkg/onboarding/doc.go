// Package onboarding defines the onboarding wizard as a state machine.
//
// The flow walks a new user through three steps: organization, profile and
// preferences. Each step has a draft schema (see Schemas) and a completion
// event guarded by a minimum share of filled required fields. Policy decides
// which steps may be skipped and how complete a step must be; it can be
// overridden from YAML with LoadPolicy.
//
//	m, err := onboarding.NewMachine()
//	if err != nil {
//		return err
//	}
//	m.Send(ctx, onboarding.EventBegin, onboarding.BeginPayload{UserID: "u_1"})
//	m.Send(ctx, onboarding.EventOrgCompleted, map[string]any{"name": "Acme"})
//	route := onboarding.Route(m.State()) // "/onboarding/profile"
//
// ERROR_OCCURRED is accepted from every state and remembers the state it left
// in Context.Failure. RETRY returns there and clears the failure. RESET goes
// back to START and keeps only the user and organization ids.
package onboarding
