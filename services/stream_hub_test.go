package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockwatch-backend/models"
)

func newHubClient(id string) *Client {
	return &Client{ID: id, send: make(chan []byte, ClientSendBuffer)}
}

func TestHubRegisterUnregisterLiveness(t *testing.T) {
	hub := NewStreamHub()
	go hub.Run()

	client := newHubClient("conn-1")
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.IsLive("conn-1")
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1, hub.ClientCount())
	assert.False(t, hub.IsLive("conn-2"))

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return !hub.IsLive("conn-1")
	}, time.Second, time.Millisecond)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHubPushDeliversToClientBuffer(t *testing.T) {
	hub := NewStreamHub()
	go hub.Run()

	client := newHubClient("conn-1")
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.IsLive("conn-1")
	}, time.Second, time.Millisecond)

	err := hub.Push("conn-1", EventStockUpdate, models.StockUpdate{Symbol: "MSFT", Price: 420.50})
	require.NoError(t, err)

	select {
	case raw := <-client.send:
		assert.Contains(t, string(raw), `"type":"stock_update"`)
		assert.Contains(t, string(raw), `"symbol":"MSFT"`)
		assert.Contains(t, string(raw), `"price":420.5`)
	case <-time.After(time.Second):
		t.Fatal("expected a message in the client send buffer")
	}
}

func TestHubPushToGoneConnection(t *testing.T) {
	hub := NewStreamHub()
	go hub.Run()

	err := hub.Push("nobody", EventStockUpdate, models.StockUpdate{Symbol: "AAPL", Price: 1})
	require.ErrorIs(t, err, ErrConnectionGone)
}

func TestHubDropAfterShutdownDoesNotBlock(t *testing.T) {
	hub := NewStreamHub()
	go hub.Run()
	hub.Shutdown()

	// A pump still unwinding after shutdown must not hang on unregister
	done := make(chan struct{})
	go func() {
		hub.drop(newHubClient("conn-1"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("unregister blocked after hub shutdown")
	}
}

func TestHubUnregisterReleasesStreams(t *testing.T) {
	hub := NewStreamHub()
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL": 150.00}}
	streams := NewStreamManager(hub, quotes, time.Minute, 5)
	hub.AttachStreams(streams)
	go hub.Run()

	client := newHubClient("conn-1")
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.IsLive("conn-1")
	}, time.Second, time.Millisecond)

	require.NoError(t, streams.Start("conn-1", "AAPL"))
	assert.Equal(t, 1, streams.ActiveStreams("conn-1"))

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return streams.ActiveStreams("conn-1") == 0
	}, time.Second, time.Millisecond)
}
