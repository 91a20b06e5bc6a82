package services

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// WebSocket configuration
const (
	MaxWebSocketClients   = 100
	WebSocketWriteTimeout = 10 * time.Second
	WebSocketPongTimeout  = 60 * time.Second
	WebSocketPingInterval = 30 * time.Second
	ClientSendBuffer      = 256
)

// Event types pushed to clients
const EventStockUpdate = "stock_update"

// ErrConnectionGone is returned by Push when the connection is no longer
// registered. Expected during the window between disconnect and streamer
// termination; not a real failure.
var ErrConnectionGone = errors.New("connection gone")

// StreamMessage is the wire envelope for pushed events
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// Client represents one WebSocket connection
type Client struct {
	ID   string
	conn *websocket.Conn
	send chan []byte
}

// Subscriber starts price streams for a connection. Implemented by the
// StreamManager; the hub calls it on subscribe frames and disconnects.
type Subscriber interface {
	Start(connID, symbol string) error
	Stop(connID, symbol string)
	DropConnection(connID string)
}

// StreamHub tracks live WebSocket connections. Its registry is the single
// liveness source consulted by every price streamer before a push.
type StreamHub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	streams    Subscriber
}

// NewStreamHub creates the hub. AttachStreams must be called before
// serving connections.
func NewStreamHub() *StreamHub {
	return &StreamHub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// AttachStreams wires the stream manager that owns per-subscription tasks
func (h *StreamHub) AttachStreams(streams Subscriber) {
	h.streams = streams
}

// Run starts the hub loop. Call in its own goroutine.
func (h *StreamHub) Run() {
	for {
		select {
		case <-h.shutdown:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			clientCount := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client %s connected. Total clients: %d", client.ID, clientCount)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
			}
			clientCount := len(h.clients)
			h.mu.Unlock()
			if h.streams != nil {
				h.streams.DropConnection(client.ID)
			}
			log.Printf("WebSocket client %s disconnected. Total clients: %d", client.ID, clientCount)
		}
	}
}

// Shutdown stops the hub loop and closes all client connections
func (h *StreamHub) Shutdown() {
	close(h.shutdown)

	h.mu.Lock()
	for _, client := range h.clients {
		close(client.send)
		client.conn.Close()
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	log.Println("Stream hub shutdown complete")
}

// drop hands the client to the hub loop for unregistration. After Shutdown
// there is no receiver, so a pump still unwinding gives up instead of
// blocking forever.
func (h *StreamHub) drop(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.shutdown:
	}
}

// IsLive reports whether the connection is still registered
func (h *StreamHub) IsLive(connID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[connID]
	return ok
}

// ClientCount returns the number of connected clients
func (h *StreamHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Push sends an event to one connection. Pushing to a gone connection is a
// no-op failure the caller just logs.
func (h *StreamHub) Push(connID, event string, payload interface{}) error {
	data, err := json.Marshal(StreamMessage{
		Type: event,
		Data: payload,
		Time: time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return ErrConnectionGone
	}

	select {
	case client.send <- data:
		return nil
	default:
		// Client buffer full, drop the update rather than block
		return errors.New("client send buffer full")
	}
}

// HandleWebSocket upgrades an HTTP request to a WebSocket connection
func (h *StreamHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	atCapacity := len(h.clients) >= MaxWebSocketClients
	h.mu.RUnlock()

	if atCapacity {
		http.Error(w, "Server at capacity", http.StatusServiceUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, ClientSendBuffer),
	}

	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(WebSocketPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads subscription commands from the WebSocket connection
func (c *Client) readPump(h *StreamHub) {
	defer func() {
		h.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(WebSocketPongTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var cmd struct {
			Action  string   `json:"action"`
			Symbols []string `json:"symbols"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			continue
		}
		if h.streams == nil {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			for _, symbol := range cmd.Symbols {
				symbol = strings.ToUpper(strings.TrimSpace(symbol))
				if symbol == "" {
					continue
				}
				if err := h.streams.Start(c.ID, symbol); err != nil {
					log.Printf("Subscribe %s for client %s rejected: %v", symbol, c.ID, err)
				}
			}
		case "unsubscribe":
			for _, symbol := range cmd.Symbols {
				h.streams.Stop(c.ID, strings.ToUpper(strings.TrimSpace(symbol)))
			}
		}
	}
}
