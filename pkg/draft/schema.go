package draft

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Schema validates the data stored for one step.
type Schema interface {
	// Check reports whether raw satisfies the current schema.
	Check(raw json.RawMessage) error
	// Completion is the share of required fields that are non-empty, in [0, 1].
	Completion(data any) float64
	// Required lists the required JSON field names.
	Required() []string
}

// Validatable is implemented by step types with rules beyond field presence.
type Validatable interface {
	Validate() error
}

// TypedSchema decodes drafts into T using the struct's json tags.
type TypedSchema[T any] struct {
	required []string
	partial  bool
}

// NewSchema creates a schema for T. required names JSON fields that must be
// present and non-empty for a draft to be accepted.
func NewSchema[T any](required ...string) *TypedSchema[T] {
	return &TypedSchema[T]{required: append([]string(nil), required...)}
}

// Partial accepts drafts whose required fields are still empty. Required
// fields then only drive Completion.
func (s *TypedSchema[T]) Partial() *TypedSchema[T] {
	s.partial = true
	return s
}

func (s *TypedSchema[T]) Required() []string {
	return append([]string(nil), s.required...)
}

// Decode parses raw into T. Type mismatches, empty required fields and
// Validate failures are errors; unknown fields are ignored.
func (s *TypedSchema[T]) Decode(raw json.RawMessage) (T, error) {
	var out T

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}
	for _, name := range s.required {
		if !s.partial && isEmpty(fields[name]) {
			return out, fmt.Errorf("%w: %s", ErrMissingRequired, name)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
		MatchName: func(mapKey, fieldName string) bool {
			return mapKey == fieldName
		},
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(fields); err != nil {
		return out, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
	}

	if v, ok := any(&out).(Validatable); ok {
		if err := v.Validate(); err != nil {
			return out, fmt.Errorf("%w: %w", ErrSchemaMismatch, err)
		}
	}
	return out, nil
}

func (s *TypedSchema[T]) Check(raw json.RawMessage) error {
	_, err := s.Decode(raw)
	return err
}

// Completion accepts raw JSON, a map or any JSON-marshalable value. A schema
// without required fields is always complete.
func (s *TypedSchema[T]) Completion(data any) float64 {
	if len(s.required) == 0 {
		return 1
	}
	fields := toFields(data)
	if fields == nil {
		return 0
	}
	filled := 0
	for _, name := range s.required {
		if !isEmpty(fields[name]) {
			filled++
		}
	}
	return float64(filled) / float64(len(s.required))
}

func toFields(data any) map[string]any {
	switch v := data.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case json.RawMessage:
		var m map[string]any
		if json.Unmarshal(v, &m) != nil {
			return nil
		}
		return m
	case []byte:
		return toFields(json.RawMessage(v))
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return toFields(json.RawMessage(raw))
	}
}

// isEmpty treats nil, blank strings, empty collections and collections whose
// members are all empty as missing. Numbers and booleans always count as set.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case map[string]any:
		for _, item := range val {
			if !isEmpty(item) {
				return false
			}
		}
		return true
	case []any:
		for _, item := range val {
			if !isEmpty(item) {
				return false
			}
		}
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
