package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Message types accepted by the relay.
const (
	MessageTypeText     = "text"
	MessageTypeImage    = "image"
	MessageTypeVideo    = "video"
	MessageTypeDocument = "document"
	MessageTypeFile     = "file"
)

// Chat is a two-or-more party conversation. The relay never mutates its
// membership, only last_message_id and updated_at.
type Chat struct {
	Id            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Participants  []User     `gorm:"many2many:chat_participants;" json:"participants"`
	LastMessageId *uuid.UUID `gorm:"type:uuid" json:"lastMessageId,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Chat) TableName() string {
	return "chats"
}

// HasParticipant reports whether userId is a member of the chat.
// Requires Participants to be preloaded.
func (c *Chat) HasParticipant(userId uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.Id == userId {
			return true
		}
	}
	return false
}

// OtherParticipants returns every participant except userId.
func (c *Chat) OtherParticipants(userId uuid.UUID) []User {
	others := make([]User, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.Id != userId {
			others = append(others, p)
		}
	}
	return others
}

// FileMeta describes an attachment on a non-text message. Stored as
// jsonb; the upload pipeline that produces the URL lives outside the
// relay.
type FileMeta struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Mime string `json:"mime,omitempty"`
}

// Message is immutable once written. Created only by the chat relay
// after membership validation.
type Message struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ChatId      uuid.UUID      `gorm:"type:uuid;not null;index:idx_messages_chat_created,priority:1" json:"chatId"`
	SenderId    uuid.UUID      `gorm:"type:uuid;not null" json:"senderId"`
	Sender      *User          `gorm:"foreignKey:SenderId" json:"sender,omitempty"`
	Content     string         `gorm:"type:text;not null" json:"content"`
	MessageType string         `gorm:"type:varchar(20);not null;default:'text'" json:"messageType"`
	File        datatypes.JSON `gorm:"type:jsonb" json:"file,omitempty"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index:idx_messages_chat_created,priority:2" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}
