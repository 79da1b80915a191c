// Package validator provides small, composable validation rules for the
// onboarding step drafts.
//
// A Rule couples a Check func with translation-friendly error metadata. Apply
// evaluates rules and aggregates failures into ValidationErrors, which
// implements error and matches ErrValidationFailed through errors.Is.
//
//	err := validator.Apply(
//		validator.Required("name", d.Name),
//		validator.MaxLen("name", d.Name, 100),
//		validator.Optional(d.Website, validator.ValidURL("website", d.Website)),
//	)
//	if verrs := validator.ExtractValidationErrors(err); verrs != nil {
//		// verrs.Fields(), verrs.Get("name") ...
//	}
//
// Rules are grouped by family: string_rules.go (presence, length, choice)
// and format_rules.go (email, URL, slug, time zone, BCP 47 language tag).
// The package keeps no state and is safe for concurrent use.
package validator
