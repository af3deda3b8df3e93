// Package hub fans network change events out to websocket subscribers.
package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Event kinds published after a successful write.
const (
	CityCreated  = "city.created"
	CityUpdated  = "city.updated"
	CityDeleted  = "city.deleted"
	RouteCreated = "route.created"
	RouteUpdated = "route.updated"
	RouteDeleted = "route.deleted"
)

// Event is the JSON message sent to every subscriber.
type Event struct {
	Type string      `json:"type"`
	ID   uint        `json:"id"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}

const writeWait = 5 * time.Second

// Hub manages active websocket connections and broadcasts events to them.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// New creates a Hub and starts its broadcasting goroutine. Call Close to stop it.
func New() *Hub {
	h := &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 100),
		done:      make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			h.send(ev)
		}
	}
}

func (h *Hub) send(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			logrus.WithError(err).WithField("conn_ptr", fmt.Sprintf("%p", conn)).
				Info("Dropping subscriber after failed write.")
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Register adds a subscriber connection.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Subscriber registered with network hub.")
}

// Unregister removes a subscriber connection.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	logrus.WithField("conn_ptr", fmt.Sprintf("%p", conn)).Info("Subscriber unregistered from network hub.")
}

// Clients returns the number of registered subscribers.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish queues an event without blocking. Events are dropped when the
// queue is full.
func (h *Hub) Publish(kind string, id uint, data interface{}) {
	ev := Event{Type: kind, ID: id, Data: data, At: time.Now().UTC()}
	select {
	case h.broadcast <- ev:
	default:
		logrus.WithField("type", kind).Warn("Network broadcast channel full, dropping event.")
	}
}

// Close stops broadcasting and closes every subscriber connection. Calls
// after the first do nothing.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(writeWait))
			conn.Close()
			delete(h.clients, conn)
		}
	})
}

// Serve keeps conn registered until the client goes away. Subscribers only
// listen; anything they send is ignored.
func (h *Hub) Serve(conn *websocket.Conn) {
	h.Register(conn)
	defer h.Unregister(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("Error reading from network subscriber.")
			}
			return
		}
	}
}
