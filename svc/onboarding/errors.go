package onboarding

import "errors"

var (
	ErrClosed             = errors.New("onboarding: flow is closed")
	ErrAlreadyStarted     = errors.New("onboarding: flow already started")
	ErrNoActiveStep       = errors.New("onboarding: current state has no step")
	ErrUnknownStep        = errors.New("onboarding: unknown step")
	ErrUnknownEvent       = errors.New("onboarding: unknown event")
	ErrMissingStore       = errors.New("onboarding: draft store is required")
	ErrMissingIdentity    = errors.New("onboarding: identity provider is required")
	ErrUnsupportedStorage = errors.New("onboarding: unsupported storage backend")
	ErrInvalidUserID      = errors.New("onboarding: invalid user id")
	ErrMissingUserID      = errors.New("onboarding: user id is required")
)
