package statemachine_test

import (
	"context"
	"testing"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/statemachine"
)

type benchContext struct {
	Count int
	Seen  map[string]struct{}
}

func (c benchContext) Clone() benchContext {
	seen := make(map[string]struct{}, len(c.Seen))
	for k := range c.Seen {
		seen[k] = struct{}{}
	}
	c.Seen = seen
	return c
}

func newBenchMachine(b *testing.B) *statemachine.Machine[docState, docEvent, benchContext] {
	b.Helper()
	count := func(_ context.Context, c *benchContext, _ any) error {
		c.Count++
		return nil
	}
	m, err := statemachine.NewBuilder[docState, docEvent](Draft, benchContext{Seen: map[string]struct{}{"a": {}, "b": {}}}).
		State(Draft, nil, count).
		State(InReview, count, nil).
		On(Draft, Submit, InReview, statemachine.WithGuard(func(context.Context, benchContext, any) bool { return true })).
		On(InReview, Approve, Draft, statemachine.WithAction(count)).
		Build()
	if err != nil {
		b.Fatal(err)
	}
	return m
}

func BenchmarkMachine_Send(b *testing.B) {
	ctx := context.Background()
	m := newBenchMachine(b)

	b.ResetTimer()
	for b.Loop() {
		_, _ = m.Send(ctx, Submit, nil)
		_, _ = m.Send(ctx, Approve, nil)
	}
}

func BenchmarkMachine_Can(b *testing.B) {
	ctx := context.Background()
	m := newBenchMachine(b)

	b.ResetTimer()
	for b.Loop() {
		_ = m.Can(ctx, Submit, nil)
	}
}

func BenchmarkMachine_DeepCopyFallback(b *testing.B) {
	type plain struct {
		Items []string
		Meta  map[string]int
	}
	ctx := context.Background()
	m, err := statemachine.NewBuilder[docState, docEvent](Draft, plain{Items: []string{"x"}, Meta: map[string]int{"y": 1}}).
		State(Draft, nil, nil).
		On(Draft, Submit, Draft).
		Build()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for b.Loop() {
		_, _ = m.Send(ctx, Submit, nil)
	}
}
