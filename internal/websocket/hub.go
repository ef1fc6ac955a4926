package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cx-tal-miterani/airline-backoffice/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeInventoryUpdated MessageType = "inventory_updated"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message represents a WebSocket message
type Message struct {
	Type       MessageType `json:"type"`
	AircraftID string      `json:"aircraftId"`
	Remaining  int         `json:"remaining"`
	Capacity   int         `json:"capacity"`
	Timestamp  int64       `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	id         string
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	aircraftID string
}

// Hub manages WebSocket connections per aircraft
type Hub struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewHub creates a new Hub. Run must be started before clients connect.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
		done:       make(chan struct{}),
		logger:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the hub's main loop and closes every client when ctx ends
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for aircraftID, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, aircraftID)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.aircraftID] == nil {
				h.clients[client.aircraftID] = make(map[*Client]bool)
			}
			h.clients[client.aircraftID][client] = true
			total := len(h.clients[client.aircraftID])
			h.mu.Unlock()
			h.logger.Debug("websocket client registered", "client_id", client.id, "aircraft_id", client.aircraftID, "total", total)

		case client := <-h.unregister:
			h.remove(client)

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("failed to marshal websocket message", "error", err)
				continue
			}

			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[message.AircraftID] {
				select {
				case client.send <- data:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				h.logger.Warn("dropping slow websocket client", "client_id", client.id, "aircraft_id", client.aircraftID)
				h.remove(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.clients[client.aircraftID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, client.aircraftID)
	}
	h.logger.Debug("websocket client unregistered", "client_id", client.id, "aircraft_id", client.aircraftID, "remaining", len(clients))
}

// InventoryChanged queues an update for everyone watching the aircraft. It
// never blocks the caller; updates are dropped when the queue is full.
func (h *Hub) InventoryChanged(aircraft models.Aircraft) {
	msg := &Message{
		Type:       MessageTypeInventoryUpdated,
		AircraftID: aircraft.ID,
		Remaining:  aircraft.Remaining,
		Capacity:   aircraft.Capacity,
		Timestamp:  time.Now().UnixMilli(),
	}
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("websocket broadcast queue full, dropping update", "aircraft_id", aircraft.ID)
	}
}

// ClientCount returns the number of clients watching an aircraft
func (h *Hub) ClientCount(aircraftID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[aircraftID])
}

// ServeWS handles GET /api/aircraft/{id}/ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:         uuid.NewString(),
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
		aircraftID: mux.Vars(r)["id"],
	}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump only consumes control frames; clients have nothing to say
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
