package contract

import (
	"context"
	"time"

	"matrimony-relay-be/internal/model"

	"github.com/google/uuid"
)

type UserRepository interface {
	FindById(ctx context.Context, id uuid.UUID) (*model.User, error)

	// SetOnline flips the presence flag and stamps last_active.
	SetOnline(ctx context.Context, id uuid.UUID, online bool) error

	// Touch updates last_active only (heartbeat path).
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
}
