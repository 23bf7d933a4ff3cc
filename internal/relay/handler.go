package relay

import (
	"context"
	"os"
	"time"

	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/repository/contract"
	"matrimony-relay-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Handler owns the WebSocket handshake and the connect/disconnect
// lifecycle around the dispatcher.
type Handler struct {
	hub        *Hub
	dispatcher *Dispatcher
	calls      *CallSignaler
	users      contract.UserRepository
	chats      contract.ChatRepository
	publisher  EventPublisher
	logger     logger.ILogger

	sendBufferSize int
}

func NewHandler(
	hub *Hub,
	dispatcher *Dispatcher,
	calls *CallSignaler,
	users contract.UserRepository,
	chats contract.ChatRepository,
	publisher EventPublisher,
	log logger.ILogger,
	sendBufferSize int,
) *Handler {
	if sendBufferSize <= 0 {
		sendBufferSize = 256
	}
	return &Handler{
		hub:            hub,
		dispatcher:     dispatcher,
		calls:          calls,
		users:          users,
		chats:          chats,
		publisher:      publisher,
		logger:         log,
		sendBufferSize: sendBufferSize,
	}
}

// ServeWs upgrades the connection after verifying the handshake token.
// The identity is taken from the JWT, never from a client-supplied
// field, and must resolve to a real user before the session registers.
func (h *Handler) ServeWs(c *fiber.Ctx) error {
	// Token source priority: query param (browser), then bearer header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
			tokenStr = authHeader[7:]
		}
	}
	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (query 'token' or Authorization header)"})
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		// Same secret as the REST layer's auth middleware.
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		h.logger.Warn("RelayHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}
	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token missing user_id"})
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID format in token"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.serveSession(conn, userID)
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// serveSession runs one connection from registration to cleanup. It
// executes on the upgrade goroutine and returns when the socket dies.
func (h *Handler) serveSession(conn *websocket.Conn, userID uuid.UUID) {
	ctx := context.Background()

	user, err := h.users.FindById(ctx, userID)
	if err != nil || user == nil {
		// Token was signed for an identity that no longer resolves.
		// Close with an explicit reason rather than lingering
		// unregistered.
		h.logger.Warn("RelayHandler", "Unknown identity on handshake", map[string]interface{}{"user_id": userID, "error": err})
		conn.WriteMessage(websocket.TextMessage, encodeEvent(EventError, ErrorPayload{Code: ErrCodeIdentityInvalid, Message: "Unknown user identity"}))
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unknown identity"))
		conn.Close()
		return
	}

	client := &Client{
		UserID:      userID,
		Send:        make(chan []byte, h.sendBufferSize),
		ConnectedAt: time.Now(),
		UserName:    user.FullName(),
		Email:       user.Email,
		Avatar:      user.AvatarURL(),
		conn:        conn,
	}
	client.dispatch = func(c *Client, raw []byte) {
		h.dispatcher.Dispatch(context.Background(), c, raw)
	}
	client.onClose = h.handleDisconnect

	h.handleConnect(ctx, client)

	go client.writePump()
	client.readPump()
}

func (h *Handler) handleConnect(ctx context.Context, client *Client) {
	// Registry mutation first, before any persistence await.
	h.hub.Register(client)

	if err := h.users.SetOnline(ctx, client.UserID, true); err != nil {
		h.logger.Error("RelayHandler", "Failed to mark user online", map[string]interface{}{"user_id": client.UserID, "error": err.Error()})
	}

	// Presence snapshot to the new connection, delta to everyone else.
	h.hub.SendToClient(client, EventOnlineUsers, h.hub.Snapshot())
	h.hub.BroadcastExcept(client.UserID, EventUserOnline, PresencePayload{UserId: client.UserID})

	// Auto-join the user's chat rooms so message broadcasts reach them
	// without an explicit join-chat per conversation.
	chats, err := h.chats.FindByParticipant(ctx, client.UserID)
	if err != nil {
		h.logger.Error("RelayHandler", "Failed to load chats for auto-join", map[string]interface{}{"user_id": client.UserID, "error": err.Error()})
	} else {
		for _, chat := range chats {
			h.hub.JoinRoom(chat.Id, client)
		}
	}

	h.publishEvent(ctx, events.TypeUserConnected, map[string]interface{}{"user_id": client.UserID.String()})
	h.logger.Info("RelayHandler", "Session started", map[string]interface{}{"user_id": client.UserID})
}

// handleDisconnect runs exactly once per connection, from readPump's
// deferred cleanup. A connection that was evicted by a newer one for
// the same identity skips every side effect: the user is still online.
func (h *Handler) handleDisconnect(client *Client) {
	if !h.hub.Unregister(client) {
		return
	}
	ctx := context.Background()

	if err := h.users.SetOnline(ctx, client.UserID, false); err != nil {
		h.logger.Error("RelayHandler", "Failed to mark user offline", map[string]interface{}{"user_id": client.UserID, "error": err.Error()})
	}

	// Crash recovery: free the counterpart of any active call so nobody
	// stays busy against a dead connection.
	if peer, had := h.calls.ReleaseUser(client.UserID); had {
		h.logger.Info("RelayHandler", "Cleared busy state on disconnect", map[string]interface{}{"user_id": client.UserID, "peer_id": peer})
	}

	h.hub.Broadcast(EventUserOffline, PresencePayload{UserId: client.UserID})
	h.hub.Broadcast(EventOnlineUsers, h.hub.Snapshot())

	h.publishEvent(ctx, events.TypeUserDisconnected, map[string]interface{}{"user_id": client.UserID.String()})
	h.logger.Info("RelayHandler", "Session ended", map[string]interface{}{"user_id": client.UserID})
}

func (h *Handler) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if h.publisher == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := h.publisher.Publish(ctx, evt); err != nil {
		h.logger.Warn("RelayHandler", "Failed to publish relay event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
