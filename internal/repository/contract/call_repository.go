package contract

import (
	"context"

	"github.com/google/uuid"
)

// CallRepository mutates the durable Call record. Row creation belongs
// to the REST call endpoint; the relay only writes terminal statuses.
type CallRepository interface {
	UpdateStatusById(ctx context.Context, callId uuid.UUID, status string) error
	UpdateStatusByRoomId(ctx context.Context, roomId string, status string) error
}
