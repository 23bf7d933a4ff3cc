package contract

import (
	"context"

	"matrimony-relay-be/internal/model"

	"github.com/google/uuid"
)

type ChatRepository interface {
	// FindById returns the chat with participants preloaded, or nil when
	// it does not exist.
	FindById(ctx context.Context, id uuid.UUID) (*model.Chat, error)

	// FindByParticipant lists every chat the user is a member of. Used to
	// auto-join rooms on connect.
	FindByParticipant(ctx context.Context, userId uuid.UUID) ([]model.Chat, error)

	// SetLastMessage updates last_message_id and updated_at.
	SetLastMessage(ctx context.Context, chatId, messageId uuid.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
}
