package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"stockwatch-backend/models"
)

var (
	// ErrStreamExists is returned when a (connection, symbol) stream is
	// already running; duplicate subscribes never spawn a second task
	ErrStreamExists = errors.New("stream already active")
	// ErrStreamLimit is returned when a connection has reached its stream cap
	ErrStreamLimit = errors.New("stream limit reached for connection")
)

// ConnectionRegistry is the view of the hub a streamer task needs: a
// liveness check consulted before every push, and the push itself.
type ConnectionRegistry interface {
	IsLive(connID string) bool
	Push(connID, event string, payload interface{}) error
}

// StreamManager owns one background task per (connection, symbol)
// subscription. Tasks poll the quote source on a fixed interval and push
// updates to their connection until it disconnects.
type StreamManager struct {
	registry     ConnectionRegistry
	quotes       QuoteFetcher
	interval     time.Duration
	maxPerClient int

	mu      sync.Mutex
	lastGen uint64
	active  map[string]map[string]uint64 // connID -> symbol -> owning task generation
}

// NewStreamManager creates a stream manager pushing through the registry
func NewStreamManager(registry ConnectionRegistry, quotes QuoteFetcher, interval time.Duration, maxPerClient int) *StreamManager {
	return &StreamManager{
		registry:     registry,
		quotes:       quotes,
		interval:     interval,
		maxPerClient: maxPerClient,
		active:       make(map[string]map[string]uint64),
	}
}

// Start spawns the streamer task for (connID, symbol). A duplicate request
// or a connection over its cap is refused; the existing streams are
// unaffected.
func (m *StreamManager) Start(connID, symbol string) error {
	m.mu.Lock()
	symbols, ok := m.active[connID]
	if !ok {
		symbols = make(map[string]uint64)
		m.active[connID] = symbols
	}
	if _, dup := symbols[symbol]; dup {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s already streaming for %s", ErrStreamExists, symbol, connID)
	}
	if len(symbols) >= m.maxPerClient {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d streams", ErrStreamLimit, m.maxPerClient)
	}
	// Each task owns its slot through a generation token. A slot re-created
	// by a later Start for the same pair carries a new token, so a stopped
	// task can never mistake it for its own and keep running.
	m.lastGen++
	gen := m.lastGen
	symbols[symbol] = gen
	m.mu.Unlock()

	go m.stream(connID, symbol, gen)
	return nil
}

// Stop releases the (connID, symbol) slot; the running task notices on its
// next tick and exits.
func (m *StreamManager) Stop(connID, symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if symbols, ok := m.active[connID]; ok {
		delete(symbols, symbol)
		if len(symbols) == 0 {
			delete(m.active, connID)
		}
	}
}

// DropConnection releases every slot held by a connection. Called by the
// hub on disconnect; the tasks themselves terminate cooperatively.
func (m *StreamManager) DropConnection(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, connID)
}

// ActiveStreams returns how many streams a connection currently holds
func (m *StreamManager) ActiveStreams(connID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active[connID])
}

// isActive reports whether the (connID, symbol) slot is still held
func (m *StreamManager) isActive(connID, symbol string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbols, ok := m.active[connID]
	if !ok {
		return false
	}
	_, ok = symbols[symbol]
	return ok
}

// owns reports whether the slot is still held by the task with this token
func (m *StreamManager) owns(connID, symbol string, gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbols, ok := m.active[connID]
	return ok && symbols[symbol] == gen
}

// release clears the slot only if this task still owns it, so an exiting
// task never tears down a successor's slot
func (m *StreamManager) release(connID, symbol string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	symbols, ok := m.active[connID]
	if !ok || symbols[symbol] != gen {
		return
	}
	delete(symbols, symbol)
	if len(symbols) == 0 {
		delete(m.active, connID)
	}
}

// stream is the per-subscription task. It pushes one sample immediately so
// the subscriber sees data without waiting a full interval, then pushes on
// every tick while the connection is live. A fetch failure skips the tick
// silently; only disconnect or unsubscribe ends the task.
func (m *StreamManager) stream(connID, symbol string, gen uint64) {
	defer m.release(connID, symbol, gen)

	m.pushQuote(connID, symbol)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for range ticker.C {
		if !m.registry.IsLive(connID) || !m.owns(connID, symbol, gen) {
			return
		}
		m.pushQuote(connID, symbol)
	}
}

// pushQuote fetches one sample and pushes it to the connection
func (m *StreamManager) pushQuote(connID, symbol string) {
	sample, err := m.quotes.FetchQuote(context.Background(), symbol)
	if err != nil {
		// Transient fetch failures never terminate the stream
		return
	}

	update := models.StockUpdate{Symbol: sample.Symbol, Price: sample.Price}
	if err := m.registry.Push(connID, EventStockUpdate, update); err != nil {
		log.Printf("Push %s to client %s failed: %v", symbol, connID, err)
	}
}
