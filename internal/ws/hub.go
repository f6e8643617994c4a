package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go-kasir-ws/internal/events"
	"go-kasir-ws/internal/metrics"
	"go-kasir-ws/internal/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownTopic  = errors.New("unknown topic")
	ErrNotRegistered = errors.New("client not registered")
)

// Conn is the slice of *websocket.Conn the hub writes to.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// TopicPolicy lists the roles allowed to join each topic. Topics missing from the
// policy cannot be joined.
type TopicPolicy map[string][]model.Role

// DefaultPolicy gates the admin topic with the same roles as the manager endpoints.
func DefaultPolicy() TopicPolicy {
	return TopicPolicy{
		events.TopicAdmin: {model.RoleAdmin, model.RoleManager},
	}
}

func (p TopicPolicy) Authorize(topic string, role model.Role) error {
	roles, ok := p[topic]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	for _, r := range roles {
		if r == role {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q may not join %q", model.ErrForbidden, role, topic)
}

// Client is one connected observer. Writes go through send and a single WritePump.
type Client struct {
	conn    Conn
	send    chan []byte
	Role    model.Role
	ActorID string

	topics map[string]bool // guarded by Hub.mu
}

func NewClient(conn Conn, role model.Role, actorID string, buf int) *Client {
	if buf <= 0 {
		buf = 16
	}
	return &Client{
		conn:    conn,
		send:    make(chan []byte, buf),
		Role:    role,
		ActorID: actorID,
		topics:  make(map[string]bool),
	}
}

// WritePump drains the send queue into the connection until the hub closes it.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// ActorCheck returns the current role of an actor, or an error when the actor may no
// longer observe anything.
type ActorCheck func(ctx context.Context, actorID string) (model.Role, error)

type Option func(*Hub)

// WithActorCheck re-validates the actor on every join instead of trusting the role
// captured at connect time.
func WithActorCheck(check ActorCheck) Option {
	return func(h *Hub) { h.check = check }
}

type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	topics  map[string]map[*Client]bool
	policy  TopicPolicy
	check   ActorCheck
	stopped bool // guarded by mu

	unregister chan *Client
	done       chan struct{}

	log zerolog.Logger
}

func NewHub(policy TopicPolicy, log zerolog.Logger, opts ...Option) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		topics:     make(map[string]map[*Client]bool),
		policy:     policy,
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run owns client removal until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.unregister:
			h.mu.Lock()
			h.remove(c)
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(n))

		case <-ctx.Done():
			h.mu.Lock()
			h.stopped = true
			for c := range h.clients {
				h.remove(c)
			}
			h.mu.Unlock()
			metrics.WSClients.Set(0)
			close(h.done)
			return
		}
	}
}

// remove detaches c everywhere and closes its queue. Callers hold mu for writing.
func (h *Hub) remove(c *Client) {
	if !h.clients[c] {
		return
	}
	for topic := range c.topics {
		delete(h.topics[topic], c)
		if len(h.topics[topic]) == 0 {
			delete(h.topics, topic)
		}
	}
	delete(h.clients, c)
	close(c.send)
}

// Register adds c to the hub. Once it returns true, c can join topics and receive
// replies. It reports false once the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false
	}
	h.clients[c] = true
	n := len(h.clients)
	h.mu.Unlock()

	metrics.WSClients.Set(float64(n))
	h.log.Debug().Str("actor_id", c.ActorID).Str("role", string(c.Role)).Msg("ws client connected")
	return true
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Join subscribes c to topic after checking the topic policy against c's role.
func (h *Hub) Join(c *Client, topic string) error {
	return h.join(c, topic, c.Role)
}

func (h *Hub) join(c *Client, topic string, role model.Role) error {
	if err := h.policy.Authorize(topic, role); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[c] {
		return ErrNotRegistered
	}
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]bool)
		h.topics[topic] = members
	}
	members[c] = true
	c.topics[topic] = true
	return nil
}

func (h *Hub) Leave(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !c.topics[topic] {
		return
	}
	delete(c.topics, topic)
	delete(h.topics[topic], c)
	if len(h.topics[topic]) == 0 {
		delete(h.topics, topic)
	}
}

// Members returns how many observers are joined to topic right now.
func (h *Hub) Members(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Publish delivers msg to the observers joined to msg.Topic at this moment.
// A full client queue drops the message for that client only.
func (h *Hub) Publish(msg events.Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.topics[msg.Topic] {
		select {
		case c.send <- msg.Payload:
			metrics.AlertsPublished.WithLabelValues(msg.Topic).Inc()
		default:
			metrics.AlertsDropped.WithLabelValues("ws").Inc()
			h.log.Warn().Str("actor_id", c.ActorID).Str("topic", msg.Topic).Msg("ws client queue full, dropping message")
		}
	}
}

// Send queues a direct reply to c without blocking.
func (h *Hub) Send(c *Client, payload []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clients[c] {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}
