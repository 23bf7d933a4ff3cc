package relay

import (
	"context"

	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/repository/contract"
)

// TypingCoordinator is a stateless, best-effort pass-through for
// typing indicators. Nothing is stored server-side; a lost stop-typing
// (e.g. on disconnect) is never corrected here, so clients expire the
// "someone is typing" state on a local timer.
type TypingCoordinator struct {
	hub    *Hub
	chats  contract.ChatRepository
	logger logger.ILogger
}

func NewTypingCoordinator(hub *Hub, chats contract.ChatRepository, log logger.ILogger) *TypingCoordinator {
	return &TypingCoordinator{hub: hub, chats: chats, logger: log}
}

// Relay forwards a typing or stop-typing signal to the chat's other
// participants, locally or via the cross-instance channel. Failures
// are logged and dropped; an advisory UI signal is not worth an error
// round-trip.
func (t *TypingCoordinator) Relay(ctx context.Context, c *Client, p TypingPayload, started bool) {
	chat, err := t.chats.FindById(ctx, p.ChatId)
	if err != nil {
		t.logger.Warn("TypingCoordinator", "Failed to load chat for typing relay", map[string]interface{}{"chat_id": p.ChatId, "error": err.Error()})
		return
	}
	if chat == nil || !chat.HasParticipant(c.UserID) {
		return
	}

	event := EventUserStopTyping
	payload := TypingEventPayload{UserId: c.UserID, ChatId: chat.Id}
	if started {
		event = EventUserTyping
		payload.UserName = c.UserName
	}

	for _, participant := range chat.OtherParticipants(c.UserID) {
		t.hub.SendTo(participant.Id, event, payload)
	}
}
