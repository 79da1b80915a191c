package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/identity"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func receive(t *testing.T, ch <-chan identity.AuthState) identity.AuthState {
	t.Helper()
	select {
	case s, ok := <-ch:
		require.True(t, ok, "channel closed")
		return s
	case <-time.After(time.Second):
		t.Fatal("no state received")
		return identity.AuthState{}
	}
}

func TestMemoryProvider_SubscribeReceivesCurrent(t *testing.T) {
	p := identity.NewMemoryProvider(identity.AuthState{IsReady: true})
	defer p.Close()

	ch := p.Subscribe(context.Background())
	assert.Equal(t, identity.AuthState{IsReady: true}, receive(t, ch))
}

func TestMemoryProvider_SetFansOut(t *testing.T) {
	p := identity.NewMemoryProvider(identity.AuthState{})
	defer p.Close()

	a := p.Subscribe(context.Background())
	b := p.Subscribe(context.Background())
	receive(t, a)
	receive(t, b)

	signedIn := identity.AuthState{IsReady: true, IsSignedIn: true, UserID: "user_1", Email: "jane@acme.io"}
	p.Set(signedIn)

	assert.Equal(t, signedIn, receive(t, a))
	assert.Equal(t, signedIn, receive(t, b))
	assert.Equal(t, signedIn, p.Current())
	assert.True(t, p.Current().Authenticated())
}

func TestMemoryProvider_SlowSubscriberSeesLatest(t *testing.T) {
	p := identity.NewMemoryProvider(identity.AuthState{})
	defer p.Close()

	ch := p.Subscribe(context.Background())
	p.Set(identity.AuthState{IsReady: true})
	p.Set(identity.AuthState{IsReady: true, IsSignedIn: true, UserID: "u"})

	assert.Equal(t, "u", receive(t, ch).UserID)
	select {
	case s := <-ch:
		t.Fatalf("unexpected extra state %+v", s)
	default:
	}
}

func TestMemoryProvider_ContextCancelCloses(t *testing.T) {
	p := identity.NewMemoryProvider(identity.AuthState{})
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch := p.Subscribe(ctx)
	receive(t, ch)
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)

	// Publishing after unsubscribe must not panic.
	p.Set(identity.AuthState{IsReady: true})
}

func TestMemoryProvider_Close(t *testing.T) {
	p := identity.NewMemoryProvider(identity.AuthState{})
	ch := p.Subscribe(context.Background())
	receive(t, ch)

	p.Close()
	p.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := p.Subscribe(context.Background())
	receive(t, late)
	_, ok = <-late
	assert.False(t, ok)

	p.Set(identity.AuthState{IsReady: true})
	assert.False(t, p.Current().IsReady)
}

func TestAuthState_Authenticated(t *testing.T) {
	assert.False(t, identity.AuthState{}.Authenticated())
	assert.False(t, identity.AuthState{IsReady: true, IsSignedIn: true}.Authenticated())
	assert.False(t, identity.AuthState{IsSignedIn: true, UserID: "u"}.Authenticated())
	assert.True(t, identity.AuthState{IsReady: true, IsSignedIn: true, UserID: "u"}.Authenticated())
}
