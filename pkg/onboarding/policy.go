package onboarding

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// StepPolicy tunes the guards of one step.
type StepPolicy struct {
	// Skippable allows SKIP while the step is active.
	Skippable bool `yaml:"skippable"`
	// MinCompletion is the share of required fields, in [0, 1], the step
	// payload must fill before the step's completion event is accepted.
	MinCompletion float64 `yaml:"minCompletion"`
}

// Policy holds the per-step guard settings.
type Policy struct {
	Steps map[string]StepPolicy `yaml:"steps"`
}

// DefaultPolicy: organization cannot be skipped and needs 80% of its
// required fields, profile needs 60%, preferences accepts anything.
func DefaultPolicy() Policy {
	return Policy{Steps: map[string]StepPolicy{
		StepOrganization: {Skippable: false, MinCompletion: 0.8},
		StepProfile:      {Skippable: true, MinCompletion: 0.6},
		StepPreferences:  {Skippable: true, MinCompletion: 0},
	}}
}

// CanSkipStep reports whether step may be skipped given the current context.
// Completed and skipped steps are re-skippable, so BACK then SKIP works.
func (p Policy) CanSkipStep(step string, _ Context) bool {
	return p.Steps[step].Skippable
}

// MinCompletion returns the completion threshold of step.
func (p Policy) MinCompletion(step string) float64 {
	return p.Steps[step].MinCompletion
}

// Validate checks that every entry names a known step with a sane threshold.
func (p Policy) Validate() error {
	var errs []error
	for _, step := range slices.Sorted(maps.Keys(p.Steps)) {
		if !isStep(step) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownStep, step))
			continue
		}
		if mc := p.Steps[step].MinCompletion; mc < 0 || mc > 1 {
			errs = append(errs, fmt.Errorf("%w: minCompletion of %q must be within [0, 1], got %v", ErrInvalidPolicy, step, mc))
		}
	}
	return errors.Join(errs...)
}

func (p Policy) clone() Policy {
	return Policy{Steps: maps.Clone(p.Steps)}
}

// ParsePolicy reads a YAML policy and overlays it on DefaultPolicy. Steps the
// document does not mention keep their defaults.
//
//	steps:
//	  profile:
//	    skippable: false
//	    minCompletion: 1
func ParsePolicy(data []byte) (Policy, error) {
	var doc struct {
		Steps map[string]yaml.Node `yaml:"steps"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Policy{}, fmt.Errorf("%w: %w", ErrInvalidPolicy, err)
	}

	p := DefaultPolicy()
	for step, node := range doc.Steps {
		sp := p.Steps[step]
		if err := node.Decode(&sp); err != nil {
			return Policy{}, fmt.Errorf("%w: step %q: %w", ErrInvalidPolicy, step, err)
		}
		p.Steps[step] = sp
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// LoadPolicy reads a YAML policy file.
func LoadPolicy(path string) (Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("%w: %w", ErrPolicyFile, err)
	}
	return ParsePolicy(data)
}
