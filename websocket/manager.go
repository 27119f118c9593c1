package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"loom/middleware"
)

// Manager tracks connected clients indexed by user ID so realtime events can
// be delivered to a specific user rather than broadcast to everyone. A user
// may hold several connections (multiple devices).
type Manager struct {
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	outbound   chan envelope
	mu         sync.RWMutex
}

type Client struct {
	conn    *websocket.Conn
	userID  string
	send    chan []byte
	manager *Manager
}

type envelope struct {
	userID string
	data   []byte
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan envelope, 64),
	}
}

func (m *Manager) Start() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if m.clients[client.userID] == nil {
				m.clients[client.userID] = make(map[*Client]bool)
			}
			m.clients[client.userID][client] = true
			m.mu.Unlock()
			log.Printf("WebSocket client registered for user %s", client.userID)

		case client := <-m.unregister:
			m.mu.Lock()
			if conns, ok := m.clients[client.userID]; ok {
				delete(conns, client)
				if len(conns) == 0 {
					delete(m.clients, client.userID)
				}
			}
			m.mu.Unlock()
			// Sole close site for the send channel. The read pump sends
			// the unregister exactly once, after its last message.
			close(client.send)
			log.Printf("WebSocket client unregistered for user %s", client.userID)

		case env := <-m.outbound:
			m.mu.Lock()
			for client := range m.clients[env.userID] {
				select {
				case client.send <- env.data:
				default:
					// Slow consumer. Drop it from the registry and close
					// the connection; the read pump's exit drives the
					// unregister, which owns closing the send channel.
					// Closing here would race the client's own writes.
					delete(m.clients[env.userID], client)
					if client.conn != nil {
						client.conn.Close()
					}
				}
			}
			if len(m.clients[env.userID]) == 0 {
				delete(m.clients, env.userID)
			}
			m.mu.Unlock()
		}
	}
}

// SendToUser delivers a typed event to every connection the user holds.
// Events for users without an open connection are silently dropped; those
// users are reached by web push instead.
func (m *Manager) SendToUser(userID, eventType string, payload interface{}) {
	data := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}

	msg, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling WebSocket event %s: %v", eventType, err)
		return
	}

	m.outbound <- envelope{userID: userID, data: msg}
}

// IsOnline reports whether the user has at least one open connection.
func (m *Manager) IsOnline(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients[userID]) > 0
}

func (m *Manager) ConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func WebSocketHandler(manager *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			log.Printf("WebSocket connection rejected: no token provided")
			http.Error(w, "Token required", http.StatusUnauthorized)
			return
		}

		claims, err := middleware.ParseToken(token)
		if err != nil {
			log.Printf("WebSocket connection rejected: %v", err)
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed: %v", err)
			return
		}

		client := &Client{
			conn:    conn,
			userID:  claims.UserID,
			send:    make(chan []byte, 256),
			manager: manager,
		}

		manager.register <- client

		welcome := map[string]interface{}{
			"type": "connected",
			"payload": map[string]interface{}{
				"userId": client.userID,
				"time":   time.Now().Unix(),
			},
		}
		msg, _ := json.Marshal(welcome)
		client.send <- msg

		go client.writePump()
		go client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.manager.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
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

		var data map[string]interface{}
		if err := json.Unmarshal(message, &data); err != nil {
			log.Printf("WebSocket message unmarshal error: %v", err)
			continue
		}

		switch data["type"] {
		case "typing_start":
			c.relayTyping("typing_start", data)
		case "typing_end":
			c.relayTyping("typing_end", data)
		case "ping":
			c.sendPong()
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// relayTyping forwards a typing indicator to the conversation partner named
// in the payload.
func (c *Client) relayTyping(eventType string, data map[string]interface{}) {
	payload, ok := data["payload"].(map[string]interface{})
	if !ok {
		return
	}

	partnerID, ok := payload["partnerId"].(string)
	if !ok || partnerID == "" {
		return
	}

	c.manager.SendToUser(partnerID, eventType, map[string]interface{}{
		"userId":    c.userID,
		"timestamp": time.Now().Unix(),
	})
}

func (c *Client) sendPong() {
	response := map[string]interface{}{
		"type": "pong",
		"payload": map[string]interface{}{
			"time": time.Now().Unix(),
		},
	}

	msg, err := json.Marshal(response)
	if err != nil {
		log.Printf("Error marshaling pong: %v", err)
		return
	}

	// Non-blocking: a client that pings without draining its buffer loses
	// the pong rather than stalling the read pump.
	select {
	case c.send <- msg:
	default:
	}
}
