package service

import (
	"context"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/repository/contract"

	"github.com/google/uuid"
)

// NotificationService backs the REST inbox surface. The relay writes
// notification rows directly during message fan-out; this service only
// reads and acknowledges them.
type NotificationService struct {
	repo contract.NotificationRepository
}

func NewNotificationService(repo contract.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

func (s *NotificationService) GetNotifications(ctx context.Context, userId uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.FindByUserId(ctx, userId, limit, offset)
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, userId uuid.UUID) (int64, error) {
	return s.repo.UnreadCount(ctx, userId)
}

// MarkAsRead acknowledges one notification. The owner identity travels
// all the way to the store so a user can never ack someone else's row.
func (s *NotificationService) MarkAsRead(ctx context.Context, userId, id uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userId, id)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userId uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userId)
}

func (s *NotificationService) ClearAll(ctx context.Context, userId uuid.UUID) error {
	return s.repo.DeleteAllByUserId(ctx, userId)
}
