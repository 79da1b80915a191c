package onboarding

import "errors"

var (
	ErrUnknownStep   = errors.New("onboarding: unknown step")
	ErrInvalidPolicy = errors.New("onboarding: invalid policy")
	ErrPolicyFile    = errors.New("onboarding: failed to read policy file")
)
