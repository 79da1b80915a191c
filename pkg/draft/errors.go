package draft

import "errors"

var (
	ErrEmptyKey           = errors.New("draft: empty storage key")
	ErrQuotaExceeded      = errors.New("draft: storage quota exceeded")
	ErrStorageUnavailable = errors.New("draft: storage unavailable")
	ErrUnknownStep        = errors.New("draft: no schema registered for step")
	ErrInvalidWrapper     = errors.New("draft: invalid wrapper")
	ErrExpired            = errors.New("draft: expired")
	ErrSchemaMismatch     = errors.New("draft: data does not match schema")
	ErrMissingRequired    = errors.New("draft: required field is empty")
	ErrNilData            = errors.New("draft: nil data")
	ErrInvalidDestination = errors.New("draft: destination must be a non-nil pointer")
)
