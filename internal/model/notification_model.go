package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Notification type codes used by the relay. The REST backend owns the
// remaining codes (interest_sent, profile_visit, ...).
const (
	NotificationTypeMessage = "message"
	NotificationTypeSystem  = "system"
)

// Notification stores the durable per-recipient inbox entry. One row is
// created per non-sender chat participant per message.
type Notification struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserId     uuid.UUID      `gorm:"type:uuid;not null;index:idx_notifications_user_created,priority:1;index:idx_notifications_user_unread,priority:1" json:"userId"`
	Type       string         `gorm:"type:varchar(50);not null;default:'system'" json:"type"`
	Title      string         `gorm:"type:varchar(200);not null" json:"title"`
	Message    string         `gorm:"type:text;not null" json:"message"`
	ChatId     *uuid.UUID     `gorm:"type:uuid" json:"chatId,omitempty"`
	FromUserId *uuid.UUID     `gorm:"type:uuid" json:"fromUserId,omitempty"`
	Link       string         `gorm:"type:text" json:"link,omitempty"`
	Metadata   datatypes.JSON `gorm:"type:jsonb" json:"metadata,omitempty"`
	IsRead     bool           `gorm:"default:false;index:idx_notifications_user_unread,priority:2" json:"isRead"`
	ReadAt     *time.Time     `json:"readAt,omitempty"`
	CreatedAt  time.Time      `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_user_created,priority:2" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}
