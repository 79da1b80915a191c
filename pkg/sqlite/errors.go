package sqlite

import "errors"

var (
	ErrEmptyPath    = errors.New("sqlite: empty database path")
	ErrOpenDatabase = errors.New("sqlite: failed to open database")
	ErrInitSchema   = errors.New("sqlite: failed to initialize schema")
	ErrEmptyKey     = errors.New("sqlite: empty key")
)
