package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch-backend/models"
)

type recordedPush struct {
	ConnID  string
	Event   string
	Payload interface{}
}

type fakeRegistry struct {
	mu     sync.Mutex
	live   map[string]bool
	pushes []recordedPush
}

func newFakeRegistry(liveConns ...string) *fakeRegistry {
	live := make(map[string]bool)
	for _, id := range liveConns {
		live[id] = true
	}
	return &fakeRegistry{live: live}
}

func (f *fakeRegistry) IsLive(connID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live[connID]
}

func (f *fakeRegistry) Push(connID, event string, payload interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.live[connID] {
		return ErrConnectionGone
	}
	f.pushes = append(f.pushes, recordedPush{ConnID: connID, Event: event, Payload: payload})
	return nil
}

func (f *fakeRegistry) disconnect(connID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.live, connID)
}

func (f *fakeRegistry) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

const testInterval = 5 * time.Millisecond

func TestStreamPushesImmediatelyOnSubscribe(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"MSFT": 420.50}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "MSFT"))

	require.Eventually(t, func() bool {
		return registry.pushCount() >= 1
	}, time.Second, time.Millisecond, "expected an immediate push before the first interval")

	registry.mu.Lock()
	first := registry.pushes[0]
	registry.mu.Unlock()
	assert.Equal(t, EventStockUpdate, first.Event)
	assert.Equal(t, models.StockUpdate{Symbol: "MSFT", Price: 420.50}, first.Payload)

	registry.disconnect("conn-1")
}

func TestStreamContinuesOnInterval(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "AAPL"))

	require.Eventually(t, func() bool {
		return registry.pushCount() >= 3
	}, time.Second, time.Millisecond)

	registry.disconnect("conn-1")
}

func TestDuplicateSubscribeIsRefused(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "AAPL"))
	err := manager.Start("conn-1", "AAPL")
	require.ErrorIs(t, err, ErrStreamExists)
	assert.Equal(t, 1, manager.ActiveStreams("conn-1"))

	registry.disconnect("conn-1")
}

func TestStreamCapPerConnection(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"A": 1, "B": 2, "C": 3}}
	manager := NewStreamManager(registry, quotes, testInterval, 2)

	require.NoError(t, manager.Start("conn-1", "A"))
	require.NoError(t, manager.Start("conn-1", "B"))
	err := manager.Start("conn-1", "C")
	require.ErrorIs(t, err, ErrStreamLimit)

	registry.disconnect("conn-1")
}

func TestStreamTerminatesAfterDisconnect(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "AAPL"))
	require.Eventually(t, func() bool {
		return registry.pushCount() >= 1
	}, time.Second, time.Millisecond)

	registry.disconnect("conn-1")
	manager.DropConnection("conn-1")

	// The task notices within one interval and releases its slot
	require.Eventually(t, func() bool {
		return manager.ActiveStreams("conn-1") == 0
	}, time.Second, time.Millisecond)

	// No further pushes after two full intervals past disconnect
	settled := registry.pushCount()
	time.Sleep(3 * testInterval)
	assert.Equal(t, settled, registry.pushCount())
}

func TestUnsubscribeStopsOnlyThatStream(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00, "MSFT": 420.00}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "AAPL"))
	require.NoError(t, manager.Start("conn-1", "MSFT"))

	manager.Stop("conn-1", "AAPL")

	require.Eventually(t, func() bool {
		return manager.ActiveStreams("conn-1") == 1
	}, time.Second, time.Millisecond)
	assert.True(t, manager.isActive("conn-1", "MSFT"))
	assert.False(t, manager.isActive("conn-1", "AAPL"))

	registry.disconnect("conn-1")
}

func TestResubscribeWithinIntervalReplacesStream(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	// Unsubscribe and resubscribe before the first task's next tick: the
	// old task must notice the slot changed hands and exit, leaving a
	// single stream for the pair.
	require.NoError(t, manager.Start("conn-1", "AAPL"))
	manager.Stop("conn-1", "AAPL")
	require.NoError(t, manager.Start("conn-1", "AAPL"))

	assert.Equal(t, 1, manager.ActiveStreams("conn-1"))

	// Let the stale task hit a tick and die, then measure the steady rate
	time.Sleep(2 * testInterval)
	settled := registry.pushCount()
	time.Sleep(10 * testInterval)
	delivered := registry.pushCount() - settled
	assert.LessOrEqual(t, delivered, 12, "expected one push per interval for a single subscription, got %d over 10 intervals", delivered)
	assert.GreaterOrEqual(t, delivered, 5, "replacement stream should still be pushing")

	registry.disconnect("conn-1")
}

func TestFetchFailureSkipsIntervalSilently(t *testing.T) {
	registry := newFakeRegistry("conn-1")
	quotes := &fakeQuotes{errs: map[string]error{"FLAKY": errors.New("provider down")}}
	manager := NewStreamManager(registry, quotes, testInterval, 5)

	require.NoError(t, manager.Start("conn-1", "FLAKY"))

	time.Sleep(4 * testInterval)
	assert.Zero(t, registry.pushCount())
	// A failing symbol does not kill the task; it keeps polling
	assert.Equal(t, 1, manager.ActiveStreams("conn-1"))

	registry.disconnect("conn-1")
}
