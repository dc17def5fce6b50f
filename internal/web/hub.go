package web

import (
	"encoding/json"
	"time"

	"github.com/vitos/futures_risk_guard/internal/domain"
	"go.uber.org/zap"
)

// NotificationMessage is the websocket frame pushed to dashboard clients.
type NotificationMessage struct {
	Type     string          `json:"type"` // notification or cooldown
	Message  string          `json:"message,omitempty"`
	Severity domain.Severity `json:"severity,omitempty"`
	// RemainingSeconds is only set on cooldown frames. Zero clears the
	// countdown banner.
	RemainingSeconds int       `json:"remaining_seconds"`
	Time             time.Time `json:"time"`
}

// Hub fans notifications out to connected websocket clients. It implements
// domain.Notifier, so the risk services push through it without knowing
// about websockets.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		logger:     logger,
	}
}

// Run owns the client set. Must run in its own goroutine before any client
// connects.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", zap.Int("clients", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Debug("websocket client disconnected", zap.Int("clients", len(h.clients)))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client, drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Notify implements domain.Notifier.
func (h *Hub) Notify(message string, severity domain.Severity) {
	h.send(NotificationMessage{
		Type:     "notification",
		Message:  message,
		Severity: severity,
		Time:     time.Now(),
	})
}

// BroadcastCountdown pushes the cooldown remaining time. Wired as the
// cooldown controller's countdown sink.
func (h *Hub) BroadcastCountdown(remaining time.Duration) {
	h.send(NotificationMessage{
		Type:             "cooldown",
		RemainingSeconds: int(remaining.Seconds()),
		Time:             time.Now(),
	})
}

func (h *Hub) send(msg NotificationMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("notification marshal failed", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.logger.Warn("notification dropped, broadcast queue full")
	}
}
