package game

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"go.uber.org/zap"
)

// wsConn is the slice of *websocket.Conn the hub writes through; tests swap
// in recording fakes.
type wsConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Client struct {
	conn   wsConn
	userID string
	mu     sync.Mutex
}

// Hub fans broadcasts out to every connected websocket and can address a
// single user's connections for balance refreshes. One Run loop owns the
// client set.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan WSMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan WSMessage, 100),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("ws client connected", zap.String("user", client.userID), zap.Int("total", count))
			h.Broadcast(WSMessage{Type: EventPlayerCount, Data: count})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.conn.Close()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.Info("ws client disconnected", zap.String("user", client.userID), zap.Int("total", count))
			h.Broadcast(WSMessage{Type: EventPlayerCount, Data: count})

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				h.log.Error("ws marshal failed", zap.Error(err))
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				go client.send(data) // Non-blocking send
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) Broadcast(message WSMessage) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("ws broadcast channel full, dropping message", zap.String("type", message.Type))
	}
}

// SendToUser delivers a message to every connection of one user, bypassing
// the broadcast queue.
func (h *Hub) SendToUser(userID string, message WSMessage) {
	data, err := json.Marshal(message)
	if err != nil {
		h.log.Error("ws marshal failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	for client := range h.clients {
		if client.userID == userID {
			go client.send(data)
		}
	}
	h.mu.RUnlock()
}

func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (c *Client) send(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	c.conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) RegisterClient(conn wsConn, userID string) *Client {
	client := &Client{
		conn:   conn,
		userID: userID,
	}
	h.register <- client
	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}
