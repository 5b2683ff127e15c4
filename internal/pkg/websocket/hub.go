package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types pushed to clients
const (
	EventNotification = "notification"
	EventUnreadCount  = "unread_count"
)

// Event is a message sent over WebSocket
type Event struct {
	// Type of event: "notification", "unread_count"
	Type string `json:"type"`

	// Notification payload for "notification" events
	Notification interface{} `json:"notification,omitempty"`

	// Unread count of the receiving user
	UnreadCount int64 `json:"unreadCount"`

	Timestamp time.Time `json:"timestamp"`
}

type delivery struct {
	userID int64
	data   []byte
}

// Hub maintains the set of active clients per user and delivers events to them
type Hub struct {
	// Registered clients organized by user ID, owned by the Run goroutine
	clients map[int64]map[*Client]bool

	deliver    chan delivery
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// counts mirrors len(clients[userID]) for readers outside Run
	mu     sync.RWMutex
	counts map[int64]int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		deliver:    make(chan delivery, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		counts:     make(map[int64]int),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case d := <-h.deliver:
			h.deliverTo(d)
		}
	}
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) registerClient(client *Client) {
	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	h.setCount(client.userID, len(h.clients[client.userID]))

	h.logger.Info().Int64("userID", client.userID).Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	conns, ok := h.clients[client.userID]
	if !ok || !conns[client] {
		return
	}
	delete(conns, client)
	close(client.send)

	if len(conns) == 0 {
		delete(h.clients, client.userID)
	}
	h.setCount(client.userID, len(conns))

	h.logger.Info().Int64("userID", client.userID).Msg("Client unregistered")
}

func (h *Hub) deliverTo(d delivery) {
	for client := range h.clients[d.userID] {
		select {
		case client.send <- d.data:
		default:
			// Slow consumer, drop the connection
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) closeAll() {
	for _, conns := range h.clients {
		for client := range conns {
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) setCount(userID int64, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n == 0 {
		delete(h.counts, userID)
		return
	}
	h.counts[userID] = n
}

// SendToUser queues an event for every open socket of the user.
// Events are dropped when the hub is saturated or stopped.
func (h *Hub) SendToUser(userID int64, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("userID", userID).Msg("Failed to marshal event")
		return
	}

	select {
	case <-h.done:
	case h.deliver <- delivery{userID: userID, data: data}:
	default:
		h.logger.Warn().Int64("userID", userID).Str("type", event.Type).Msg("Hub queue full, event dropped")
	}
}

// PushNotification sends a new notification together with the fresh unread count
func (h *Hub) PushNotification(userID int64, notification interface{}, unreadCount int64) {
	h.SendToUser(userID, Event{Type: EventNotification, Notification: notification, UnreadCount: unreadCount})
}

// PushUnreadCount sends only the unread count
func (h *Hub) PushUnreadCount(userID int64, unreadCount int64) {
	h.SendToUser(userID, Event{Type: EventUnreadCount, UnreadCount: unreadCount})
}

// GetClientsCount returns the number of open sockets of a user
func (h *Hub) GetClientsCount(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.counts[userID]
}
