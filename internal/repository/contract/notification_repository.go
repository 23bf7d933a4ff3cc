package contract

import (
	"context"
	"errors"

	"matrimony-relay-be/internal/model"

	"github.com/google/uuid"
)

// ErrNotificationNotFound is returned by owner-scoped mutations when no
// row matches both the id and the owner.
var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error
	FindByUserId(ctx context.Context, userId uuid.UUID, limit, offset int) ([]model.Notification, int64, error)
	UnreadCount(ctx context.Context, userId uuid.UUID) (int64, error)

	// MarkAsRead is scoped by owner: a row belonging to another user is
	// treated as not found, never updated.
	MarkAsRead(ctx context.Context, userId, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userId uuid.UUID) error
	DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error
}
