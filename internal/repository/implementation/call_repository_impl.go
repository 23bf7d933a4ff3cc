package implementation

import (
	"context"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CallRepositoryImpl struct {
	db *gorm.DB
}

func NewCallRepository(db *gorm.DB) contract.CallRepository {
	return &CallRepositoryImpl{db: db}
}

func (r *CallRepositoryImpl) UpdateStatusById(ctx context.Context, callId uuid.UUID, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Call{}).
		Where("id = ?", callId).
		Update("status", status).Error
}

func (r *CallRepositoryImpl) UpdateStatusByRoomId(ctx context.Context, roomId string, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.Call{}).
		Where("room_id = ?", roomId).
		Update("status", status).Error
}
