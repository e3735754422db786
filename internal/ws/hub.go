package ws

import (
	"encoding/json"
	"log"
	"sync"

	"smartretail-pos/internal/watch"

	"github.com/gofiber/contrib/websocket"
)

// Hub pushes store snapshots and alerts to connected UI clients. It is the
// outward-facing consumer of the watch broker: whatever the broker re-emits,
// every client sees.
type Hub struct {
	Clients    map[*websocket.Conn]bool
	Register   chan *websocket.Conn
	Unregister chan *websocket.Conn
	Broadcast  chan []byte
	mutex      sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*websocket.Conn]bool),
		Register:   make(chan *websocket.Conn),
		Unregister: make(chan *websocket.Conn),
		Broadcast:  make(chan []byte),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Register:
			h.mutex.Lock()
			h.Clients[conn] = true
			h.mutex.Unlock()
			log.Println("[ws] client connected")

		case conn := <-h.Unregister:
			h.mutex.Lock()
			if _, ok := h.Clients[conn]; ok {
				delete(h.Clients, conn)
				conn.Close()
			}
			h.mutex.Unlock()

		case message := <-h.Broadcast:
			h.mutex.Lock()
			for conn := range h.Clients {
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					conn.Close()
					delete(h.Clients, conn)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastJSON marshals a payload and fans it out to every client.
func (h *Hub) BroadcastJSON(payload interface{}) {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[ws] marshal broadcast: %v", err)
		return
	}
	h.Broadcast <- msg
}

// Forward drains a watch subscription and rebroadcasts each snapshot as a
// query_update message. It returns when the subscription is released.
func (h *Hub) Forward(sub *watch.Subscription) {
	for update := range sub.Updates() {
		h.BroadcastJSON(map[string]interface{}{
			"type":  "query_update",
			"query": update.Key,
			"data":  update.Data,
		})
	}
}
