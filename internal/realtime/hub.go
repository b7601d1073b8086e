// Package realtime pushes attendance summaries to websocket clients
// watching an occurrence.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// Message is the envelope written to clients.
type Message struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Payload any    `json:"payload"`
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
	once sync.Once
}

// Hub keeps one set of clients per room. Rooms are occurrence ids.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*Client]struct{}
	upgrader websocket.Upgrader
}

// NewHub builds a hub. An empty origins list accepts every origin.
func NewHub(origins []string) *Hub {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[c.room]; !ok {
		h.rooms[c.room] = make(map[*Client]struct{})
	}
	h.rooms[c.room][c] = struct{}{}
	log.Debug("Websocket client registered", "room", c.room, "clients", len(h.rooms[c.room]))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.room]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	c.once.Do(func() { close(c.send) })
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
	log.Debug("Websocket client unregistered", "room", c.room, "clients", len(clients))
}

// Broadcast sends payload to every client of room. Slow clients whose
// buffer is full miss the message; the next summary supersedes it.
func (h *Hub) Broadcast(room string, payload any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	data, err := json.Marshal(Message{Type: "attendance.updated", Room: room, Payload: payload})
	if err != nil {
		log.Error("Failed to marshal websocket message", "room", room, "error", err)
		return
	}
	for c := range clients {
		select {
		case c.send <- data:
		default:
			log.Warn("Websocket client too slow, skipping message", "room", room)
		}
	}
}

// Clients reports how many clients watch room.
func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Serve upgrades the request and attaches the connection to room. It
// returns once the connection is registered; pumps run in goroutines.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error.
		log.Warn("Failed to upgrade websocket", "room", room, "error", err)
		return
	}
	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), room: room}
	h.Register(c)
	go c.writePump()
	go c.readPump()
}

// readPump only drains control frames; clients never send data.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("Websocket closed unexpectedly", "room", c.room, "error", err)
			}
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
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
