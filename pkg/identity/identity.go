package identity

import "context"

// AuthState is the read-only view of the identity provider the onboarding
// flow depends on.
type AuthState struct {
	IsReady     bool   `json:"isReady"`
	IsSignedIn  bool   `json:"isSignedIn"`
	UserID      string `json:"userId"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	// OrganizationID is set when the provider already knows the user's organization.
	OrganizationID string `json:"organizationId,omitempty"`
}

// Authenticated reports whether the provider is ready and has a signed-in user.
func (s AuthState) Authenticated() bool {
	return s.IsReady && s.IsSignedIn && s.UserID != ""
}

// Provider exposes the current auth state and a stream of changes.
type Provider interface {
	Current() AuthState
	// Subscribe delivers the current state immediately and every later change.
	// Slow consumers only see the most recent state. The channel is closed
	// when ctx is done or the provider shuts down.
	Subscribe(ctx context.Context) <-chan AuthState
}
