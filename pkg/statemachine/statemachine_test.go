package statemachine_test

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/statemachine"
)

type docState string

type docEvent string

const (
	Draft     docState = "draft"
	InReview  docState = "in_review"
	Approved  docState = "approved"
	Published docState = "published"
	Failed    docState = "failed"

	Submit  docEvent = "submit"
	Approve docEvent = "approve"
	Publish docEvent = "publish"
	Fail    docEvent = "fail"
	Unknown docEvent = "unknown"
)

type docContext struct {
	Reviews  int
	Tags     map[string]bool
	Trail    []string
	Reviewer string
}

func (c docContext) Clone() docContext {
	c.Tags = maps.Clone(c.Tags)
	c.Trail = append([]string(nil), c.Trail...)
	return c
}

func trail(name string) statemachine.Action[docContext] {
	return func(_ context.Context, c *docContext, _ any) error {
		c.Trail = append(c.Trail, name)
		return nil
	}
}

func newDocMachine(t *testing.T, opts ...statemachine.Option) *statemachine.Machine[docState, docEvent, docContext] {
	t.Helper()

	hasReviewer := func(_ context.Context, c docContext, payload any) bool {
		name, _ := payload.(string)
		return name != "" || c.Reviewer != ""
	}

	m, err := statemachine.NewBuilder[docState, docEvent](Draft, docContext{Tags: map[string]bool{"seed": true}}).
		State(Draft, trail("enter:draft"), trail("exit:draft")).
		State(InReview, trail("enter:in_review"), trail("exit:in_review")).
		State(Approved, trail("enter:approved"), nil).
		State(Published, nil, nil).
		State(Failed, nil, nil).
		On(Draft, Submit, InReview,
			statemachine.WithGuard(hasReviewer),
			statemachine.WithAction(func(_ context.Context, c *docContext, payload any) error {
				c.Trail = append(c.Trail, "action:submit")
				if name, ok := payload.(string); ok {
					c.Reviewer = name
				}
				c.Tags["submitted"] = true
				return nil
			}),
		).
		On(InReview, Approve, Approved, statemachine.WithAction(func(_ context.Context, c *docContext, _ any) error {
			c.Reviews++
			return nil
		})).
		On(Approved, Publish, Published).
		Global(Fail, Failed, statemachine.Except(Failed)).
		With(opts...).
		Build()
	require.NoError(t, err)
	return m
}

func TestMachine_Send(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("hooks run in order on one draft", func(t *testing.T) {
		t.Parallel()
		m := newDocMachine(t)

		ok, err := m.Send(ctx, Submit, "alice")
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, InReview, m.State())
		c := m.Context()
		assert.Equal(t, []string{"exit:draft", "action:submit", "enter:in_review"}, c.Trail)
		assert.Equal(t, "alice", c.Reviewer)
		assert.True(t, c.Tags["submitted"])
	})

	t.Run("unhandled event is a no-op", func(t *testing.T) {
		t.Parallel()
		m := newDocMachine(t)
		before := m.Context()

		ok, err := m.Send(ctx, Unknown, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, Draft, m.State())
		assert.Equal(t, before, m.Context())

		ok, err = m.Send(ctx, Approve, nil)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, Draft, m.State())
	})

	t.Run("guard rejection leaves context untouched", func(t *testing.T) {
		t.Parallel()
		m := newDocMachine(t)
		before := m.Context()

		ok, err := m.Send(ctx, Submit, "")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.True(t, m.Matches(Draft))
		assert.Equal(t, before, m.Context())
	})

	t.Run("action error rolls back the whole transition", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		m, err := statemachine.NewBuilder[docState, docEvent](Draft, docContext{}).
			State(Draft, nil, trail("exit:draft")).
			State(InReview, func(_ context.Context, c *docContext, _ any) error {
				c.Reviews = 99
				return boom
			}, nil).
			On(Draft, Submit, InReview, statemachine.WithAction(trail("action"))).
			Build()
		require.NoError(t, err)

		ok, err := m.Send(ctx, Submit, nil)
		require.Error(t, err)
		assert.False(t, ok)
		assert.ErrorIs(t, err, boom)
		assert.ErrorIs(t, err, statemachine.ErrActionFailed)
		assert.True(t, statemachine.IsActionError(err))

		var aerr *statemachine.ActionError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, statemachine.PhaseEntry, aerr.Phase)
		assert.Equal(t, "in_review", aerr.State)

		assert.Equal(t, Draft, m.State())
		assert.Empty(t, m.Context().Trail)
		assert.Zero(t, m.Context().Reviews)
	})

	t.Run("action panic is converted to an error", func(t *testing.T) {
		t.Parallel()
		m, err := statemachine.NewBuilder[docState, docEvent](Draft, docContext{}).
			State(Draft, nil, nil).
			State(InReview, nil, nil).
			On(Draft, Submit, InReview, statemachine.WithAction(func(_ context.Context, c *docContext, _ any) error {
				c.Reviews++
				panic("kaboom")
			})).
			Build()
		require.NoError(t, err)

		ok, err := m.Send(ctx, Submit, nil)
		assert.False(t, ok)
		assert.ErrorIs(t, err, statemachine.ErrActionFailed)
		assert.Contains(t, err.Error(), "kaboom")
		assert.Equal(t, Draft, m.State())
		assert.Zero(t, m.Context().Reviews)
	})

	t.Run("global transition reaches every state but the excluded one", func(t *testing.T) {
		t.Parallel()
		for _, path := range [][]docEvent{{}, {Submit}, {Submit, Approve}, {Submit, Approve, Publish}} {
			m := newDocMachine(t)
			for _, e := range path {
				ok, err := m.Send(ctx, e, "bob")
				require.NoError(t, err)
				require.True(t, ok)
			}
			ok, err := m.Send(ctx, Fail, nil)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, Failed, m.State())

			ok, err = m.Send(ctx, Fail, nil)
			require.NoError(t, err)
			assert.False(t, ok)
		}
	})
}

func TestMachine_Can(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("matches what send would do", func(t *testing.T) {
		t.Parallel()
		cases := []struct {
			event   docEvent
			payload any
		}{
			{Submit, ""},
			{Submit, "carol"},
			{Approve, nil},
			{Unknown, nil},
			{Fail, nil},
		}
		for _, tc := range cases {
			m := newDocMachine(t)
			can := m.Can(ctx, tc.event, tc.payload)
			ok, err := m.Send(ctx, tc.event, tc.payload)
			require.NoError(t, err)
			assert.Equal(t, ok, can, "event %s", tc.event)
		}
	})

	t.Run("has no side effects even when the guard mutates", func(t *testing.T) {
		t.Parallel()
		m, err := statemachine.NewBuilder[docState, docEvent](Draft, docContext{Tags: map[string]bool{}}).
			State(Draft, nil, nil).
			State(InReview, nil, nil).
			On(Draft, Submit, InReview, statemachine.WithGuard(func(_ context.Context, c docContext, _ any) bool {
				c.Tags["touched"] = true
				c.Reviews = 7
				return true
			})).
			Build()
		require.NoError(t, err)

		for range 3 {
			assert.True(t, m.Can(ctx, Submit, nil))
		}
		assert.Equal(t, Draft, m.State())
		assert.Empty(t, m.Context().Tags)
		assert.Zero(t, m.Context().Reviews)
	})
}

func TestMachine_Isolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("context copies do not alias machine state", func(t *testing.T) {
		t.Parallel()
		m := newDocMachine(t)
		c := m.Context()
		c.Tags["leak"] = true
		c.Trail = append(c.Trail, "leak")

		assert.False(t, m.Context().Tags["leak"])
		assert.Empty(t, m.Context().Trail)
	})

	t.Run("reset restores a fresh copy of the seed", func(t *testing.T) {
		t.Parallel()
		m := newDocMachine(t)
		_, err := m.Send(ctx, Submit, "dave")
		require.NoError(t, err)

		m.Reset()
		assert.Equal(t, Draft, m.State())
		assert.Equal(t, map[string]bool{"seed": true}, m.Context().Tags)

		_, err = m.Send(ctx, Submit, "erin")
		require.NoError(t, err)
		m.Reset()
		assert.Equal(t, map[string]bool{"seed": true}, m.Context().Tags)
		assert.Empty(t, m.Context().Trail)
	})

	t.Run("seed passed to the builder is copied", func(t *testing.T) {
		t.Parallel()
		seed := docContext{Tags: map[string]bool{}}
		m, err := statemachine.NewBuilder[docState, docEvent](Draft, seed).
			State(Draft, nil, nil).
			Build()
		require.NoError(t, err)

		seed.Tags["late"] = true
		m.Reset()
		assert.Empty(t, m.Context().Tags)
	})
}

func TestMachine_Resolver(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	type retryCtx struct{ Previous string }

	m, err := statemachine.NewBuilder[docState, docEvent](Draft, retryCtx{}).
		State(Draft, nil, nil).
		State(InReview, nil, nil).
		State(Failed, nil, nil).
		On(Draft, Submit, InReview).
		Global(Fail, Failed, statemachine.Except(Failed), statemachine.WithAction(func(_ context.Context, c *retryCtx, payload any) error {
			c.Previous = payload.(string)
			return nil
		})).
		On(Failed, Approve, "", statemachine.WithResolver(func(c retryCtx, _ any) docState {
			return docState(c.Previous)
		})).
		Build()
	require.NoError(t, err)

	_, err = m.Send(ctx, Submit, nil)
	require.NoError(t, err)
	_, err = m.Send(ctx, Fail, string(InReview))
	require.NoError(t, err)

	assert.True(t, m.Can(ctx, Approve, nil))
	ok, err := m.Send(ctx, Approve, nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, InReview, m.State())

	_, err = m.Send(ctx, Fail, "nowhere")
	require.NoError(t, err)
	assert.False(t, m.Can(ctx, Approve, nil))
	ok, err = m.Send(ctx, Approve, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, statemachine.ErrUnknownState)
	assert.Equal(t, Failed, m.State())
}

func TestMachine_Observer(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var (
		mu       sync.Mutex
		attempts []statemachine.Attempt
	)
	m := newDocMachine(t,
		statemachine.WithObserver(func(_ context.Context, a statemachine.Attempt) {
			mu.Lock()
			defer mu.Unlock()
			attempts = append(attempts, a)
		}),
		statemachine.WithObserver(func(context.Context, statemachine.Attempt) {
			panic("observer must not break transitions")
		}),
	)

	_, _ = m.Send(ctx, Unknown, nil)
	_, _ = m.Send(ctx, Submit, "")
	ok, err := m.Send(ctx, Submit, "frank")
	require.NoError(t, err)
	require.True(t, ok)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, attempts, 3)
	assert.Equal(t, statemachine.ResultUnhandled, attempts[0].Result)
	assert.Equal(t, statemachine.ResultRejected, attempts[1].Result)
	assert.Equal(t, statemachine.ResultAccepted, attempts[2].Result)
	assert.Equal(t, "draft", attempts[2].From)
	assert.Equal(t, "in_review", attempts[2].To)
	assert.Equal(t, "submit", attempts[2].Event)
}

func TestMachine_Events(t *testing.T) {
	t.Parallel()
	m := newDocMachine(t)
	assert.Equal(t, []docEvent{Fail, Submit}, m.Events())
}

func TestConcurrency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m, err := statemachine.NewBuilder[docState, docEvent](Draft, docContext{}).
		State(Draft, nil, nil).
		On(Draft, Submit, Draft, statemachine.WithAction(func(_ context.Context, c *docContext, _ any) error {
			c.Reviews++
			return nil
		})).
		Build()
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = m.Send(ctx, Submit, nil)
		}()
		go func() {
			defer wg.Done()
			_ = m.Can(ctx, Submit, nil)
			_ = m.Context()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, m.Context().Reviews)
}
