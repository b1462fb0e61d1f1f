package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the router level
	},
}

// Hub fans matched transactions out to connected websocket clients.
type Hub struct {
	mu        sync.Mutex
	clients   map[string]*websocket.Conn
	broadcast chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[string]*websocket.Conn),
		broadcast: make(chan []byte, 256),
	}
}

// Run delivers queued broadcasts to every client. Slow or dead clients are
// dropped rather than allowed to stall the hub.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mu.Lock()
		for id, conn := range h.clients {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[API] Websocket write to %s failed: %v", id, err)
				conn.Close()
				delete(h.clients, id)
			}
		}
		h.mu.Unlock()
	}
}

// Subscribe upgrades the request and registers the client with the hub.
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[API] Websocket upgrade failed: %v", err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = conn
	total := len(h.clients)
	h.mu.Unlock()

	log.Printf("[API] Websocket client %s connected (%d total)", id, total)

	// Clients only receive; the read loop exists to notice disconnects.
	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, id)
			remaining := len(h.clients)
			h.mu.Unlock()
			conn.Close()
			log.Printf("[API] Websocket client %s disconnected (%d remaining)", id, remaining)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[API] Websocket client %s: %v", id, err)
				}
				return
			}
		}
	}()
}

// Broadcast queues raw bytes for delivery to every connected client.
func (h *Hub) Broadcast(data []byte) {
	h.broadcast <- data
}

// BroadcastJSON marshals the payload and queues it for delivery.
func (h *Hub) BroadcastJSON(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[API] Dropping websocket payload: %v", err)
		return
	}
	h.Broadcast(data)
}

// ClientCount reports how many clients are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
