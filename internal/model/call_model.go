package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Terminal call statuses written by the relay. "pending" rows are
// created by the REST call endpoint before signaling starts.
const (
	CallStatusPending   = "pending"
	CallStatusCompleted = "completed"
	CallStatusRejected  = "rejected"
	CallStatusMissed    = "missed"
)

// Call records a signaling attempt between two users. The relay mutates
// status on answer/reject/timeout; the busy table is not transactional
// with this row.
type Call struct {
	Id                uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CallerId          uuid.UUID      `gorm:"type:uuid;not null;index" json:"callerId"`
	ReceiverId        uuid.UUID      `gorm:"type:uuid;not null;index" json:"receiverId"`
	Status            string         `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	RoomId            string         `gorm:"type:varchar(100);index" json:"roomId,omitempty"`
	ConnectionDetails datatypes.JSON `gorm:"type:jsonb" json:"connectionDetails,omitempty"`
	StartedAt         *time.Time     `json:"startedAt,omitempty"`
	EndedAt           *time.Time     `json:"endedAt,omitempty"`
	CreatedAt         time.Time      `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Call) TableName() string {
	return "calls"
}
