package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/pkg/logger"
	"matrimony-relay-be/internal/repository/contract"
	"matrimony-relay-be/pkg/events"

	"gorm.io/datatypes"
)

// ChatRelay validates chat membership, persists messages and fans them
// out to the chat's broadcast room, then drives notification fan-out to
// the non-sender participants.
type ChatRelay struct {
	hub           *Hub
	chats         contract.ChatRepository
	messages      contract.MessageRepository
	notifications contract.NotificationRepository
	users         contract.UserRepository
	publisher     EventPublisher
	logger        logger.ILogger
}

func NewChatRelay(
	hub *Hub,
	chats contract.ChatRepository,
	messages contract.MessageRepository,
	notifications contract.NotificationRepository,
	users contract.UserRepository,
	publisher EventPublisher,
	log logger.ILogger,
) *ChatRelay {
	return &ChatRelay{
		hub:           hub,
		chats:         chats,
		messages:      messages,
		notifications: notifications,
		users:         users,
		publisher:     publisher,
		logger:        log,
	}
}

// JoinChat subscribes the connection to a chat room. Non-participants
// get an explicit denial instead of a silent no-op.
func (r *ChatRelay) JoinChat(ctx context.Context, c *Client, p JoinChatPayload) {
	chat, err := r.chats.FindById(ctx, p.ChatId)
	if err != nil {
		r.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodePersistenceFailure, Message: "Failed to load chat"})
		return
	}
	if chat == nil || !chat.HasParticipant(c.UserID) {
		r.hub.SendToClient(c, EventError, ErrorPayload{Code: ErrCodeAuthorizationDenied, Message: "Not a participant of this chat"})
		return
	}
	r.hub.JoinRoom(p.ChatId, c)
}

// SendMessage runs the write-before-broadcast pipeline: membership
// check, persist, update chat head, broadcast to the room, fan out
// notifications. The first failure stops the pipeline and is reported
// to the sender alone as message-error; nothing is retried.
func (r *ChatRelay) SendMessage(ctx context.Context, c *Client, p SendMessagePayload) {
	chat, err := r.chats.FindById(ctx, p.ChatId)
	if err != nil {
		r.sendError(c, ErrCodePersistenceFailure, "Failed to send message")
		return
	}
	if chat == nil || !chat.HasParticipant(c.UserID) {
		r.sendError(c, ErrCodeAuthorizationDenied, "Not a participant of this chat")
		return
	}

	messageType := p.MessageType
	if messageType == "" {
		messageType = model.MessageTypeText
	}

	message := &model.Message{
		ChatId:      p.ChatId,
		SenderId:    c.UserID,
		Content:     p.Content,
		MessageType: messageType,
	}
	if p.File != nil && messageType != model.MessageTypeText {
		fileJSON, _ := json.Marshal(p.File)
		message.File = datatypes.JSON(fileJSON)
	}

	// Persistence must complete before any emission.
	if err := r.messages.Create(ctx, message); err != nil {
		r.logger.Error("ChatRelay", "Failed to persist message", map[string]interface{}{"chat_id": p.ChatId, "error": err.Error()})
		r.sendError(c, ErrCodePersistenceFailure, "Failed to send message")
		return
	}

	if err := r.chats.SetLastMessage(ctx, chat.Id, message.Id); err != nil {
		r.logger.Error("ChatRelay", "Failed to update chat head", map[string]interface{}{"chat_id": p.ChatId, "error": err.Error()})
		r.sendError(c, ErrCodePersistenceFailure, "Failed to send message")
		return
	}

	sender, err := r.users.FindById(ctx, c.UserID)
	if err != nil || sender == nil {
		// Sender row vanished mid-session; the message is persisted, so
		// broadcast without the profile decoration.
		sender = &model.User{Id: c.UserID, Email: c.Email}
	}
	message.Sender = sender

	// The sender's own connection receives the broadcast too; clients
	// reconcile their optimistic copy by sender and time proximity.
	r.hub.BroadcastRoom(chat.Id, EventNewMessage, message)

	if err := r.fanOutNotifications(ctx, chat, sender, message); err != nil {
		r.sendError(c, ErrCodePersistenceFailure, "Failed to send message")
		return
	}

	r.publishEvent(ctx, events.TypeMessageSent, map[string]interface{}{
		"chat_id":      chat.Id.String(),
		"sender_id":    c.UserID.String(),
		"message_id":   message.Id.String(),
		"message_type": messageType,
	})
}

// fanOutNotifications persists one Notification per non-sender
// participant and pushes ephemeral events to the ones with a live
// connection, here or on another instance.
func (r *ChatRelay) fanOutNotifications(ctx context.Context, chat *model.Chat, sender *model.User, message *model.Message) error {
	senderName := sender.FullName()

	for _, participant := range chat.OtherParticipants(sender.Id) {
		notification := &model.Notification{
			UserId:     participant.Id,
			Type:       model.NotificationTypeMessage,
			Title:      "New message",
			Message:    fmt.Sprintf("%s sent you a message", sender.FirstName),
			ChatId:     &chat.Id,
			FromUserId: &sender.Id,
			IsRead:     false,
		}
		if err := r.notifications.Create(ctx, notification); err != nil {
			r.logger.Error("ChatRelay", "Failed to persist notification", map[string]interface{}{"user_id": participant.Id, "error": err.Error()})
			return err
		}

		// Targeted sends go through SendTo: delivered locally when the
		// participant is attached here, mirrored to the Redis channel
		// when they may be on another instance.
		r.hub.SendTo(participant.Id, EventMessageNotification, MessageNotificationPayload{
			ChatId:       chat.Id,
			FromUser:     sender.Id,
			SenderName:   senderName,
			SenderAvatar: sender.AvatarURL(),
			Message:      message.Content,
			MessageType:  message.MessageType,
			Timestamp:    time.Now(),
		})
		r.hub.SendTo(participant.Id, EventChatUpdated, ChatUpdatedPayload{
			ChatId:      chat.Id,
			LastMessage: message,
		})
	}
	return nil
}

func (r *ChatRelay) sendError(c *Client, code, message string) {
	r.hub.SendToClient(c, EventMessageError, ErrorPayload{Code: code, Message: message})
}

func (r *ChatRelay) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if r.publisher == nil {
		return
	}
	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := r.publisher.Publish(ctx, evt); err != nil {
		r.logger.Warn("ChatRelay", "Failed to publish relay event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
