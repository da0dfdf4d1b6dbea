// Package monitoring pushes live assessment events to dashboard clients
// over websocket.
package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"heartguard/logging"
)

// MessageType tags monitor events on the wire.
type MessageType string

const (
	AssessmentEvent MessageType = "assessment"
	SystemStatus    MessageType = "system_status"
	Heartbeat       MessageType = "heartbeat"
)

// Message is the wire envelope for monitor events.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Assessment is the payload published after each risk assessment. It
// carries no patient vitals; only the outcome leaves the process.
type Assessment struct {
	Risk       string  `json:"risk"`
	Confidence float64 `json:"confidence"`
}

// Status is the payload of periodic system_status events.
type Status struct {
	ConnectedClients int       `json:"connected_clients"`
	Assessments      int64     `json:"assessments"`
	StartTime        time.Time `json:"start_time"`
}

// Client is one connected websocket dashboard.
type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub fans monitor events out to all connected clients.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader

	assessments int64
	startTime   time.Time
}

// NewHub creates a hub; call Start in a goroutine before serving upgrades.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		startTime: time.Now(),
	}
}

// Start runs the hub loop until Stop.
func (h *Hub) Start() {
	statusTicker := time.NewTicker(30 * time.Second)
	defer statusTicker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			logging.L().Info("monitor client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			logging.L().Info("monitor client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-statusTicker.C:
			h.publishStatus()

		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts the hub down and disconnects all clients.
func (h *Hub) Stop() {
	close(h.done)
}

// HandleWebSocket upgrades an HTTP request into a monitor connection.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.L().Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	if !h.addClient(client) {
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// addClient registers the client with the hub loop. Returns false when the
// hub has already stopped, so connects during shutdown cannot block.
func (h *Hub) addClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) removeClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// PublishAssessment broadcasts one assessment outcome.
func (h *Hub) PublishAssessment(a Assessment) {
	h.mu.Lock()
	h.assessments++
	h.mu.Unlock()
	h.publish(AssessmentEvent, a)
}

func (h *Hub) publishStatus() {
	h.mu.RLock()
	status := Status{
		ConnectedClients: len(h.clients),
		Assessments:      h.assessments,
		StartTime:        h.startTime,
	}
	h.mu.RUnlock()
	h.publish(SystemStatus, status)
}

func (h *Hub) publish(msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.L().Warn("marshal monitor payload failed", zap.Error(err))
		return
	}
	message, err := json.Marshal(Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return
	}

	select {
	case h.broadcast <- message:
	default:
		logging.L().Warn("monitor broadcast queue full, dropping message")
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
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.removeClient(c)
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.L().Warn("websocket read error", zap.Error(err))
			}
			break
		}
	}
}
