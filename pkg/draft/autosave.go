package draft

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const DefaultDebounce = time.Second

// AutoSaveState is the transient status of an AutoSaver.
type AutoSaveState struct {
	IsSaving  bool      `json:"isSaving"`
	LastSaved time.Time `json:"lastSaved,omitzero"`
	Err       string    `json:"error,omitempty"`
}

// AutoSaver coalesces bursts of Update calls into a single save that runs
// after the debounce interval has elapsed without further updates. Saves run
// one at a time and always write the newest value, so a slow write can never
// land after a newer one.
type AutoSaver struct {
	store    *Store
	step     string
	debounce time.Duration
	enabled  bool
	onSaved  func(AutoSaveState)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// saveMu serializes writes to the store.
	saveMu sync.Mutex

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	closed  bool
	latest  json.RawMessage
	hasData bool
	version uint64 // bumped by every Update
	saved   uint64 // version of the last successful write
	state   AutoSaveState
}

// AutoSaveOption configures an AutoSaver.
type AutoSaveOption func(*AutoSaver)

func WithDebounce(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d >= 0 {
			a.debounce = d
		}
	}
}

// WithEnabled turns scheduling on or off. A disabled saver ignores Update
// but still honours ForceSave.
func WithEnabled(enabled bool) AutoSaveOption {
	return func(a *AutoSaver) {
		a.enabled = enabled
	}
}

// WithOnSaved registers a callback invoked after every completed save.
func WithOnSaved(fn func(AutoSaveState)) AutoSaveOption {
	return func(a *AutoSaver) {
		a.onSaved = fn
	}
}

func NewAutoSaver(store *Store, step string, opts ...AutoSaveOption) *AutoSaver {
	ctx, cancel := context.WithCancel(context.Background())
	a := &AutoSaver{
		store:    store,
		step:     step,
		debounce: DefaultDebounce,
		enabled:  true,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Step returns the step this saver writes to.
func (a *AutoSaver) Step() string {
	return a.step
}

// Update records data as the latest value and restarts the debounce timer.
// data is encoded right away, so the caller may keep mutating it.
func (a *AutoSaver) Update(data any) {
	raw, err := snapshot(data)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	if err != nil {
		a.state.Err = err.Error()
		return
	}
	a.latest = raw
	a.hasData = true
	a.version++
	if !a.enabled {
		return
	}

	a.stopTimerLocked()
	a.gen++
	gen := a.gen
	a.wg.Add(1)
	a.timer = time.AfterFunc(a.debounce, func() {
		defer a.wg.Done()
		a.fire(gen)
	})
}

// ForceSave cancels any pending timer and saves the latest value now.
func (a *AutoSaver) ForceSave(ctx context.Context) bool {
	a.mu.Lock()
	if a.closed || !a.hasData {
		a.mu.Unlock()
		return false
	}
	a.stopTimerLocked()
	a.gen++
	a.mu.Unlock()

	return a.flush(ctx, true)
}

// State returns a snapshot of the saver status.
func (a *AutoSaver) State() AutoSaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Close cancels pending work and waits for an in-flight save to return.
// No state update or callback happens after Close.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.stopTimerLocked()
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()
}

func (a *AutoSaver) fire(gen uint64) {
	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.mu.Unlock()

	a.flush(a.ctx, false)
}

// flush writes the latest value under saveMu. Without force it skips a value
// that is already stored. When Update ran during the write and no timer will
// pick the change up, the newer value is written right after.
func (a *AutoSaver) flush(ctx context.Context, force bool) bool {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	for {
		a.mu.Lock()
		if a.closed || !a.hasData {
			a.mu.Unlock()
			return false
		}
		if !force && a.version == a.saved {
			a.mu.Unlock()
			return true
		}
		data, version := a.latest, a.version
		a.state.IsSaving = true
		a.mu.Unlock()

		var payload any
		if data != nil {
			payload = data
		}
		err := a.store.SaveErr(ctx, a.step, payload)

		a.mu.Lock()
		if a.closed {
			a.mu.Unlock()
			return err == nil
		}
		a.state.IsSaving = false
		if err != nil {
			a.state.Err = err.Error()
		} else {
			a.state.Err = ""
			a.state.LastSaved = a.store.now()
			a.saved = version
		}
		state := a.state
		cb := a.onSaved
		again := err == nil && a.enabled && a.version != version && a.timer == nil
		a.mu.Unlock()

		if cb != nil {
			cb(state)
		}
		if !again {
			return err == nil
		}
		force = false
	}
}

// snapshot encodes data now. nil stays nil so the store reports ErrNilData.
func snapshot(data any) (json.RawMessage, error) {
	switch v := data.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if v == nil {
			return nil, nil
		}
		return bytes.Clone(v), nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal draft data: %w", err)
	}
	return raw, nil
}

// stopTimerLocked releases the wait group slot of a timer that never fired.
func (a *AutoSaver) stopTimerLocked() {
	if a.timer != nil && a.timer.Stop() {
		a.wg.Done()
	}
	a.timer = nil
}
