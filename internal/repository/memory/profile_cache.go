package memory

import (
	"context"
	"time"

	"matrimony-relay-be/internal/model"
	"matrimony-relay-be/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// CachedUserRepository decorates a UserRepository with a short-TTL
// profile cache. Typing and notification fan-out resolve the sender's
// profile on every event; without the cache that is one DB read per
// keystroke.
type CachedUserRepository struct {
	inner contract.UserRepository
	cache *cache.Cache
}

func NewCachedUserRepository(inner contract.UserRepository) *CachedUserRepository {
	// Profiles change rarely; 5 minutes is plenty and the purge interval
	// keeps the map bounded.
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &CachedUserRepository{
		inner: inner,
		cache: c,
	}
}

func (r *CachedUserRepository) FindById(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if x, found := r.cache.Get(id.String()); found {
		return x.(*model.User), nil
	}

	user, err := r.inner.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user != nil {
		r.cache.Set(id.String(), user, cache.DefaultExpiration)
	}
	return user, nil
}

func (r *CachedUserRepository) SetOnline(ctx context.Context, id uuid.UUID, online bool) error {
	// Presence flags are read from the live registry, not the cache, but
	// drop the entry anyway so a stale IsOnline never leaks out.
	r.cache.Delete(id.String())
	return r.inner.SetOnline(ctx, id, online)
}

func (r *CachedUserRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.inner.Touch(ctx, id, at)
}
