package draft

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Wrapper is the persisted envelope around a step draft.
type Wrapper struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch milliseconds
	Version   string          `json:"version"`
}

// SavedAt returns the wrapper timestamp as a time.Time.
func (w Wrapper) SavedAt() time.Time {
	return time.UnixMilli(w.Timestamp)
}

// Age reports how old the wrapper is relative to now.
func (w Wrapper) Age(now time.Time) time.Duration {
	return now.Sub(w.SavedAt())
}

// Expired reports whether the wrapper is older than ttl. A draft exactly ttl
// old is still valid.
func (w Wrapper) Expired(now time.Time, ttl time.Duration) bool {
	return w.Age(now) > ttl
}

func (w Wrapper) validate() error {
	data := bytes.TrimSpace(w.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		return fmt.Errorf("%w: missing data", ErrInvalidWrapper)
	case w.Timestamp <= 0:
		return fmt.Errorf("%w: missing timestamp", ErrInvalidWrapper)
	case w.Version == "":
		return fmt.Errorf("%w: missing version", ErrInvalidWrapper)
	}
	return nil
}

// DecodeWrapper parses raw storage bytes and checks the envelope structure.
func DecodeWrapper(raw []byte) (Wrapper, error) {
	var w Wrapper
	if err := json.Unmarshal(raw, &w); err != nil {
		return Wrapper{}, fmt.Errorf("%w: %w", ErrInvalidWrapper, err)
	}
	if err := w.validate(); err != nil {
		return Wrapper{}, err
	}
	return w, nil
}

func encodeWrapper(data any, version string, now time.Time) ([]byte, error) {
	if data == nil {
		return nil, ErrNilData
	}
	raw, ok := data.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			return nil, fmt.Errorf("marshal draft data: %w", err)
		}
	}
	w := Wrapper{Data: raw, Timestamp: now.UnixMilli(), Version: version}
	if err := w.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(w)
}
