package web

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Message types pushed to dashboard clients
const (
	MessageTypeStatus       = "status"
	MessageTypePaste        = "paste"
	MessageTypeHotkeyUpdate = "hotkey_update"
	MessageTypeHotkeyResult = "hotkey_result"
	MessageTypeNotification = "notification"
)

// Message is the envelope of every websocket message
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

type StatusMessage struct {
	Status string `json:"status"`
}

type PasteMessage struct {
	ID        int64  `json:"id"`
	Source    string `json:"source"`
	TargetApp string `json:"targetApp"`
	Method    string `json:"method"`
	Size      string `json:"size"`
	Success   bool   `json:"success"`
	Timestamp string `json:"timestamp"`
}

type HotkeyUpdateMessage struct {
	ID      string `json:"id"`
	Display string `json:"display"`
}

type HotkeyResultMessage struct {
	ID     string `json:"id"`
	Hotkey string `json:"hotkey,omitempty"`
	Error  string `json:"error,omitempty"`
}

type NotificationMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	OK      bool   `json:"ok"`
}

// Hub fans messages out to connected clients
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	quit       chan struct{}
}

// NewHub creates a hub; Run must be started for it to deliver messages
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
	}
}

// Run owns the client set until Stop is called
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			slog.Debug("WebSocket client connected", "clients", len(h.clients))

		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
				slog.Debug("WebSocket client disconnected", "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					// Client too slow, drop it
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.quit:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Stop disconnects all clients and ends Run
func (h *Hub) Stop() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

// BroadcastMessage queues msg for every client. Messages are dropped when
// the queue is full.
func (h *Hub) BroadcastMessage(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("Failed to marshal websocket message", "type", msg.Type, "error", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		slog.Warn("WebSocket broadcast queue full, dropping message", "type", msg.Type)
	}
}

// Client is one websocket connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards client messages and unregisters on disconnect
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.quit:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("WebSocket read error", "error", err)
			}
			return
		}
	}
}

// writePump forwards queued messages and keeps the connection alive
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
