package app

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/feedrelay/internal/config"
	"github.com/stacklok/feedrelay/internal/feed"
)

// fakeTransport records the lifecycle calls made by the app
type fakeTransport struct {
	mu      sync.Mutex
	openErr error
	opened  bool
	closed  bool
}

func (f *fakeTransport) Open(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.opened = true
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) state() (opened, closed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened, f.closed
}

type stubWalker struct{}

func (stubWalker) Walk(context.Context, uint32) ([]feed.Item, error) { return nil, nil }

// mockCoordinator implements the coordinator.Coordinator interface for testing
type mockCoordinator struct {
	mu          sync.Mutex
	startCalls  int
	stopCalled  bool
	startErr    error
	transport   *fakeTransport
	openAtStart bool
}

func (m *mockCoordinator) Start(ctx context.Context) error {
	m.mu.Lock()
	m.startCalls++
	err := m.startErr
	if m.transport != nil {
		m.openAtStart, _ = m.transport.state()
	}
	m.mu.Unlock()

	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (m *mockCoordinator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return nil
}

func newTestApp(coord *mockCoordinator, transport *fakeTransport) *FeedRelayApp {
	return &FeedRelayApp{
		config: &config.Config{},
		components: &AppComponents{
			SyncCoordinator: coord,
			Transport:       transport,
		},
		httpServer:      &http.Server{Addr: "127.0.0.1:0", ReadHeaderTimeout: time.Second},
		shutdownTimeout: time.Second,
	}
}

func TestFeedRelayApp_StartStopsOnCancel(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	coord := &mockCoordinator{transport: transport}
	app := newTestApp(coord, transport)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx) }()

	require.Eventually(t, func() bool {
		coord.mu.Lock()
		defer coord.mu.Unlock()
		return coord.startCalls == 1
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}

	coord.mu.Lock()
	defer coord.mu.Unlock()
	assert.Equal(t, 1, coord.startCalls)
	assert.True(t, coord.stopCalled)
	assert.True(t, coord.openAtStart, "transport must be open before the coordinator starts")

	_, closed := transport.state()
	assert.True(t, closed)
}

func TestFeedRelayApp_CoordinatorFailureStopsApp(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{}
	coord := &mockCoordinator{startErr: errors.New("sync cycle failed: walk: element not found")}
	app := newTestApp(coord, transport)

	done := make(chan error, 1)
	go func() { done <- app.Start(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "sync cycle failed")
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after coordinator failure")
	}

	_, closed := transport.state()
	assert.True(t, closed)
}

func TestFeedRelayApp_TransportOpenFailure(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{openErr: errors.New("401 Unauthorized")}
	coord := &mockCoordinator{}
	app := newTestApp(coord, transport)

	err := app.Start(context.Background())
	require.ErrorContains(t, err, "failed to open chat transport")

	coord.mu.Lock()
	defer coord.mu.Unlock()
	assert.Zero(t, coord.startCalls)
}
