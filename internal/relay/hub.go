package relay

import (
	"context"
	"encoding/json"
	"sync"

	"matrimony-relay-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Hub is the connection registry: the single in-process authority
// mapping a user identity to its live connection, plus chat-scoped
// broadcast rooms. At most one connection is tracked per identity;
// registering a second one evicts the first (last-connection-wins).
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*Client

	// rooms: chat id -> subscribed clients; joined is the reverse index
	// so unregister can drop room memberships without a full scan.
	rooms  map[uuid.UUID]map[*Client]struct{}
	joined map[*Client]map[uuid.UUID]struct{}

	// Optional Redis leg for clients attached to other instances.
	// Presence and busy-state authority stays in this process.
	rdb        *redis.Client
	instanceId string

	logger logger.ILogger
}

const redisChannel = "relay_events"

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*Client),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		joined:     make(map[*Client]map[uuid.UUID]struct{}),
		rdb:        rdb,
		instanceId: uuid.NewString(),
		logger:     log,
	}
}

// Register inserts the client, evicting any prior connection for the
// same identity. The evicted connection is closed so its pumps unwind;
// its disconnect path becomes a no-op because it is no longer current.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	prior := h.clients[client.UserID]
	h.clients[client.UserID] = client
	h.mu.Unlock()

	if prior != nil {
		h.logger.Warn("Hub", "Evicting prior connection for identity", map[string]interface{}{"user_id": client.UserID})
		prior.closeConn()
	}
	h.logger.Info("Hub", "Client registered", map[string]interface{}{"user_id": client.UserID})
}

// Unregister removes the client if it is still the current connection
// for its identity. Returns false when the client was already evicted,
// in which case the caller must skip offline side effects.
func (h *Hub) Unregister(client *Client) bool {
	h.mu.Lock()
	current := h.clients[client.UserID] == client
	if current {
		delete(h.clients, client.UserID)
	}
	for chatId := range h.joined[client] {
		delete(h.rooms[chatId], client)
		if len(h.rooms[chatId]) == 0 {
			delete(h.rooms, chatId)
		}
	}
	delete(h.joined, client)
	h.mu.Unlock()

	if current {
		h.logger.Info("Hub", "Client unregistered", map[string]interface{}{"user_id": client.UserID})
	}
	return current
}

// Resolve returns the live connection for an identity.
func (h *Hub) Resolve(userId uuid.UUID) (*Client, bool) {
	h.mu.RLock()
	client, ok := h.clients[userId]
	h.mu.RUnlock()
	return client, ok
}

// Snapshot lists every registered identity. Sent to new connections as
// the online-users event.
func (h *Hub) Snapshot() []uuid.UUID {
	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()
	return ids
}

// JoinRoom subscribes the client to a chat's broadcast group.
func (h *Hub) JoinRoom(chatId uuid.UUID, client *Client) {
	h.mu.Lock()
	if h.rooms[chatId] == nil {
		h.rooms[chatId] = make(map[*Client]struct{})
	}
	h.rooms[chatId][client] = struct{}{}
	if h.joined[client] == nil {
		h.joined[client] = make(map[uuid.UUID]struct{})
	}
	h.joined[client][chatId] = struct{}{}
	h.mu.Unlock()
}

// inRoom reports room membership for the connection.
func (h *Hub) inRoom(chatId uuid.UUID, client *Client) bool {
	h.mu.RLock()
	_, ok := h.rooms[chatId][client]
	h.mu.RUnlock()
	return ok
}

func (h *Hub) deliver(client *Client, frame []byte) {
	select {
	case client.Send <- frame:
	default:
		// Slow consumer: drop the frame rather than block a broadcast.
		// The ping/pong deadline will reap a dead connection.
		h.logger.Warn("Hub", "Send buffer full, dropping frame", map[string]interface{}{"user_id": client.UserID})
	}
}

// SendToClient queues an event on one connection.
func (h *Hub) SendToClient(client *Client, event string, payload interface{}) {
	h.deliver(client, encodeEvent(event, payload))
}

// SendTo queues an event for an identity if it is connected here, and
// mirrors it to the Redis channel for other instances. Returns whether
// a local connection was found.
func (h *Hub) SendTo(userId uuid.UUID, event string, payload interface{}) bool {
	frame := encodeEvent(event, payload)

	h.mu.RLock()
	client, ok := h.clients[userId]
	h.mu.RUnlock()

	if ok {
		h.deliver(client, frame)
	} else {
		// Not here: mirror to other instances in case the identity is
		// attached elsewhere.
		h.publishRedis(userId.String(), frame)
	}
	return ok
}

// Broadcast queues an event on every registered connection.
func (h *Hub) Broadcast(event string, payload interface{}) {
	frame := encodeEvent(event, payload)

	h.mu.RLock()
	for _, client := range h.clients {
		h.deliver(client, frame)
	}
	h.mu.RUnlock()

	h.publishRedis("*", frame)
}

// BroadcastExcept queues an event on every connection except one
// identity's. Used for presence deltas.
func (h *Hub) BroadcastExcept(exclude uuid.UUID, event string, payload interface{}) {
	frame := encodeEvent(event, payload)

	h.mu.RLock()
	for id, client := range h.clients {
		if id == exclude {
			continue
		}
		h.deliver(client, frame)
	}
	h.mu.RUnlock()
}

// BroadcastRoom queues an event on every connection subscribed to the
// chat, the sender's included.
func (h *Hub) BroadcastRoom(chatId uuid.UUID, event string, payload interface{}) {
	frame := encodeEvent(event, payload)

	h.mu.RLock()
	for client := range h.rooms[chatId] {
		h.deliver(client, frame)
	}
	h.mu.RUnlock()
}

type redisEnvelope struct {
	Origin       string          `json:"origin"`
	TargetUserID string          `json:"target_user_id"`
	Message      json.RawMessage `json:"message"`
}

func (h *Hub) publishRedis(target string, frame []byte) {
	if h.rdb == nil {
		return
	}
	payload, _ := json.Marshal(redisEnvelope{Origin: h.instanceId, TargetUserID: target, Message: frame})
	h.rdb.Publish(context.Background(), redisChannel, payload)
}

// Run subscribes to the Redis channel and delivers cross-instance
// frames to local connections. No-op when Redis is not configured.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for msg := range ch {
		var envelope redisEnvelope
		if err := json.Unmarshal([]byte(msg.Payload), &envelope); err != nil {
			h.logger.Warn("Hub", "Malformed Redis frame", map[string]interface{}{"error": err.Error()})
			continue
		}
		if envelope.Origin == h.instanceId {
			continue
		}

		if envelope.TargetUserID == "*" {
			h.mu.RLock()
			for _, client := range h.clients {
				h.deliver(client, envelope.Message)
			}
			h.mu.RUnlock()
			continue
		}

		uid, err := uuid.Parse(envelope.TargetUserID)
		if err != nil {
			continue
		}
		h.mu.RLock()
		client, ok := h.clients[uid]
		h.mu.RUnlock()
		if ok {
			h.deliver(client, envelope.Message)
		}
	}
}
