package identity

import (
	"context"
	"sync"
)

// MemoryProvider is an in-process Provider whose state is pushed with Set.
// It backs the HTTP service, where each request carries the user identity,
// and tests.
type MemoryProvider struct {
	mu      sync.Mutex
	current AuthState
	subs    map[chan AuthState]struct{}
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewMemoryProvider(initial AuthState) *MemoryProvider {
	return &MemoryProvider{
		current: initial,
		subs:    make(map[chan AuthState]struct{}),
		stop:    make(chan struct{}),
	}
}

func (p *MemoryProvider) Current() AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *MemoryProvider) Subscribe(ctx context.Context) <-chan AuthState {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan AuthState, 1)
	ch <- p.current
	if p.closed {
		close(ch)
		return ch
	}
	p.subs[ch] = struct{}{}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		select {
		case <-ctx.Done():
			p.unsubscribe(ch)
		case <-p.stop:
		}
	}()

	return ch
}

// Set publishes state to every subscriber, replacing any value a subscriber
// has not consumed yet.
func (p *MemoryProvider) Set(state AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.current = state
	for ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- state
	}
}

// Close closes every subscription channel and stops the goroutines watching
// subscriber contexts. It is safe to call more than once.
func (p *MemoryProvider) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stop)
	for ch := range p.subs {
		close(ch)
	}
	clear(p.subs)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *MemoryProvider) unsubscribe(ch chan AuthState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.subs[ch]; ok {
		delete(p.subs, ch)
		close(ch)
	}
}
