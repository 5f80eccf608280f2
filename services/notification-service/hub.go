package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"cybercrime-portal/pkg/catalog"
	"cybercrime-portal/pkg/logger"
)

const clientBuffer = 16

var (
	notificationsDelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_delivered_total",
			Help: "Notifications pushed to connected clients",
		},
		[]string{"type"},
	)
	notificationsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_dropped_total",
			Help: "Notifications dropped because a client was not keeping up",
		},
	)
	connectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_connected_clients",
			Help: "Clients currently subscribed to the event stream",
		},
	)
)

// Client is one subscribed event stream.
type Client struct {
	UserID   string
	Role     catalog.UserRole
	Settings catalog.NotificationSettings
	Send     chan Notification
}

func NewClient(userID string, role catalog.UserRole, settings catalog.NotificationSettings) *Client {
	return &Client{UserID: userID, Role: role, Settings: settings, Send: make(chan Notification, clientBuffer)}
}

// wants reports whether n is addressed to c and allowed by its settings.
func (c *Client) wants(n Notification) bool {
	if n.UserID != "" {
		if n.UserID != c.UserID {
			return false
		}
	} else if n.Audience != c.Role {
		return false
	}
	return c.Settings.AllowsPush(n.Type, n.Urgent)
}

// Hub fans notifications out to subscribed clients. All client bookkeeping
// happens on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Notification
	count      chan chan int
	done       chan struct{}
	log        *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Notification, 100),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves the hub until ctx is done, then closes every client stream.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return ctx.Err()

		case c := <-h.register:
			h.clients[c] = struct{}{}
			connectedClients.Set(float64(len(h.clients)))
			h.log.WithField("user_id", c.UserID).WithField("clients", len(h.clients)).Info("Client subscribed")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.WithField("user_id", c.UserID).WithField("clients", len(h.clients)).Info("Client unsubscribed")
			}

		case n := <-h.broadcast:
			for c := range h.clients {
				if !c.wants(n) {
					continue
				}
				select {
				case c.Send <- n:
					notificationsDelivered.WithLabelValues(string(n.Type)).Inc()
				default:
					notificationsDropped.Inc()
				}
			}

		case reply := <-h.count:
			reply <- len(h.clients)
		}
	}
}

func (h *Hub) drop(c *Client) {
	delete(h.clients, c)
	close(c.Send)
	connectedClients.Set(float64(len(h.clients)))
}

// Subscribe registers c. It returns false when ctx ends or the hub has
// stopped first.
func (h *Hub) Subscribe(ctx context.Context, c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-ctx.Done():
	case <-h.done:
	}
	return false
}

// Unsubscribe removes c and closes its stream if the hub still has it.
func (h *Hub) Unsubscribe(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues n for delivery.
func (h *Hub) Publish(ctx context.Context, n Notification) {
	select {
	case h.broadcast <- n:
	case <-ctx.Done():
	case <-h.done:
	}
}

// Clients returns how many streams are connected, or -1 once the hub has
// stopped.
func (h *Hub) Clients() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return -1
	}
}
