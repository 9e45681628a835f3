package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsConnected  = "connected"
	taskCreated  = "task_created"
	taskUpdated  = "task_updated"
	taskDeleted  = "task_deleted"
	wsWriteWait  = 5 * time.Second
	wsMaxMessage = 512
	wsSendBuffer = 16
)

// TaskEvent is pushed to every websocket of the task's owner.
type TaskEvent struct {
	Event  string       `json:"event"`
	TaskID int64        `json:"task_id,omitempty"`
	Task   *models.Task `json:"task,omitempty"`
}

// WSHub keeps the open websockets per owner. Each connection has its own
// writer goroutine fed through a buffered channel, so a slow client never
// holds the hub lock while its socket blocks.
type WSHub struct {
	connections map[uuid.UUID]map[*wsClient]bool
	mutex       sync.Mutex
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewWSHub() *WSHub {
	return &WSHub{connections: make(map[uuid.UUID]map[*wsClient]bool)}
}

// Register adds conn, queues the connected event for it and starts its writer.
func (hub *WSHub) Register(ownerID uuid.UUID, conn *websocket.Conn) (*wsClient, error) {
	message, err := json.Marshal(TaskEvent{Event: wsConnected})
	if err != nil {
		return nil, err
	}
	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBuffer)}
	client.send <- message

	hub.mutex.Lock()
	if hub.connections[ownerID] == nil {
		hub.connections[ownerID] = make(map[*wsClient]bool)
	}
	hub.connections[ownerID][client] = true
	hub.mutex.Unlock()

	go client.writePump()
	return client, nil
}

func (hub *WSHub) Unregister(ownerID uuid.UUID, client *wsClient) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	hub.remove(ownerID, client)
}

// Broadcast queues event for the owner's connections only. A connection whose
// queue is full misses the event.
func (hub *WSHub) Broadcast(ownerID uuid.UUID, event TaskEvent) {
	message, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to encode WebSocket message: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for client := range hub.connections[ownerID] {
		select {
		case client.send <- message:
		default:
			log.Printf("WebSocket send queue full, dropping %s event", event.Event)
		}
	}
}

// CloseOwner drops every connection of the owner.
func (hub *WSHub) CloseOwner(ownerID uuid.UUID) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for client := range hub.connections[ownerID] {
		hub.remove(ownerID, client)
	}
}

// Close drops every connection, used on shutdown.
func (hub *WSHub) Close() {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for ownerID, clients := range hub.connections {
		for client := range clients {
			hub.remove(ownerID, client)
		}
	}
}

// Count reports the open connections of an owner.
func (hub *WSHub) Count(ownerID uuid.UUID) int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.connections[ownerID])
}

// remove must be called with mutex held. Closing send stops the writer,
// which then closes the socket.
func (hub *WSHub) remove(ownerID uuid.UUID, client *wsClient) {
	clients, ok := hub.connections[ownerID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(hub.connections, ownerID)
	}
	close(client.send)
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("Failed to send WebSocket message: %v", err)
			return
		}
	}
	// the hub dropped us
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// checkOrigin accepts requests without Origin (non-browser clients) and
// origins on the allow list. An empty list allows everything.
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(h.Origins) == 0 {
		return true
	}
	return h.allowedOrigin(origin)
}

/*
GET /api/ws
The token comes from the Authorization header or, for browsers that cannot
set headers on websocket requests, from ?token=.
*/
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	user, err := h.authenticate(r.Context(), token)
	if err != nil {
		sendUnauthorized(w, "Could not validate credentials")
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn.SetReadLimit(wsMaxMessage)

	client, err := h.WSHub.Register(user.ID, conn)
	if err != nil {
		log.Printf("WebSocket register failed: %v", err)
		conn.Close()
		return
	}

	// incoming messages are ignored; the loop only notices disconnects
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			h.WSHub.Unregister(user.ID, client)
			return
		}
	}
}
