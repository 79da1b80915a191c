package statemachine

import (
	"github.com/mohae/deepcopy"
)

func resolveCloner[C any](o *options) (func(C) C, error) {
	if o.cloner != nil {
		fn, ok := o.cloner.(func(C) C)
		if !ok {
			return nil, ErrClonerMismatch
		}
		return fn, nil
	}

	var zero C
	if _, ok := any(zero).(Cloner[C]); ok {
		return func(c C) C { return any(c).(Cloner[C]).Clone() }, nil
	}
	if _, ok := any(&zero).(Cloner[C]); ok {
		return func(c C) C { return any(&c).(Cloner[C]).Clone() }, nil
	}

	// deepcopy only sees exported fields; contexts with private state should
	// implement Cloner.
	return func(c C) C {
		cp, ok := deepcopy.Copy(c).(C)
		if !ok {
			return c
		}
		return cp
	}, nil
}
