package onboarding_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rockethooks/rockethooks-app-sub001/pkg/draft"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/identity"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/logger"
	ob "github.com/rockethooks/rockethooks-app-sub001/pkg/onboarding"
	"github.com/rockethooks/rockethooks-app-sub001/pkg/telemetry"
	svc "github.com/rockethooks/rockethooks-app-sub001/svc/onboarding"
)

var signedIn = identity.AuthState{IsReady: true, IsSignedIn: true, UserID: "u_1", Email: "jane@example.com"}

// routeRecorder collects navigation requests.
type routeRecorder struct {
	mu     sync.Mutex
	routes []string
}

func (r *routeRecorder) Navigate(_ context.Context, route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *routeRecorder) Routes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.routes...)
}

func (r *routeRecorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.routes) == 0 {
		return ""
	}
	return r.routes[len(r.routes)-1]
}

type harness struct {
	flow     *svc.Flow
	store    *draft.Store
	storage  *draft.MemoryStorage
	provider *identity.MemoryProvider
	nav      *routeRecorder
	events   *telemetry.Recorder
}

func newHarness(t *testing.T, initial identity.AuthState, opts ...svc.Option) *harness {
	t.Helper()

	h := &harness{
		storage:  draft.NewMemoryStorage(),
		provider: identity.NewMemoryProvider(initial),
		nav:      &routeRecorder{},
		events:   &telemetry.Recorder{},
	}
	h.store = draft.NewStore(h.storage, ob.Schemas(), draft.WithLogger(logger.Discard()))

	opts = append([]svc.Option{svc.WithAutoSaveDebounce(20 * time.Millisecond)}, opts...)
	f, err := svc.New(svc.Deps{
		Store:     h.store,
		Identity:  h.provider,
		Navigator: h.nav,
		Tracker:   h.events,
		Logger:    logger.Discard(),
	}, opts...)
	require.NoError(t, err)
	h.flow = f

	t.Cleanup(func() {
		f.Close()
		h.provider.Close()
	})
	return h
}

// started returns a harness whose flow is in ORGANIZATION_SETUP.
func started(t *testing.T, opts ...svc.Option) *harness {
	t.Helper()
	h := newHarness(t, signedIn, opts...)
	require.NoError(t, h.flow.Start(context.Background()))
	require.Equal(t, ob.StateOrganizationSetup, h.flow.State())
	return h
}

func (h *harness) transitions() []telemetry.Recorded {
	var out []telemetry.Recorded
	for _, e := range h.events.Events() {
		if e.Event == telemetry.EventTransition {
			out = append(out, e)
		}
	}
	return out
}
