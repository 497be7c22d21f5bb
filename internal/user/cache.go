package user

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/unxchange/auth-service/internal/logging"
)

const userCacheTTL = 5 * time.Minute

// CachedStore is a redis read-through cache in front of a Store. Every
// authorized request resolves the token subject back to a user record, so
// the lookup path is hot; the cache keeps those resolutions off Postgres.
//
// Cache faults are logged and fall through to the underlying store, never
// surfaced to callers. Writes go straight through and prime the cache.
type CachedStore struct {
	store  Store
	client *redis.Client
	logger *logging.Logger
}

func NewCachedStore(store Store, client *redis.Client, logger *logging.Logger) *CachedStore {
	return &CachedStore{
		store:  store,
		client: client,
		logger: logger,
	}
}

// cachedUser mirrors User with the hashed password included; the domain
// model hides it from JSON, but the cache entry must round-trip it.
type cachedUser struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	HashedPassword string `json:"hashed_password"`
	Role           string `json:"role"`
}

func emailKey(email string) string {
	return fmt.Sprintf("user:email:%s", email)
}

func idKey(id int64) string {
	return fmt.Sprintf("user:id:%d", id)
}

// Create delegates to the underlying store and primes the cache on success.
func (c *CachedStore) Create(ctx context.Context, name, email, hashedPassword string, role Role) (*User, error) {
	u, err := c.store.Create(ctx, name, email, hashedPassword, role)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, u)
	return u, nil
}

// GetByEmail serves from the cache when possible, falling back to the store.
func (c *CachedStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	if u := c.lookup(ctx, emailKey(email)); u != nil {
		return u, nil
	}

	u, err := c.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, u)
	return u, nil
}

// GetByID serves from the cache when possible, falling back to the store.
func (c *CachedStore) GetByID(ctx context.Context, id int64) (*User, error) {
	if u := c.lookup(ctx, idKey(id)); u != nil {
		return u, nil
	}

	u, err := c.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.prime(ctx, u)
	return u, nil
}

// List always hits the underlying store; a full listing is not worth caching.
func (c *CachedStore) List(ctx context.Context) ([]*User, error) {
	return c.store.List(ctx)
}

func (c *CachedStore) lookup(ctx context.Context, key string) *User {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("user cache read failed", "key", key, "error", err)
		}
		return nil
	}

	var cu cachedUser
	if err := json.Unmarshal(data, &cu); err != nil {
		c.logger.Warn("user cache entry corrupt", "key", key, "error", err)
		return nil
	}

	return &User{
		ID:             cu.ID,
		Name:           cu.Name,
		Email:          cu.Email,
		HashedPassword: cu.HashedPassword,
		Role:           Role(cu.Role),
	}
}

func (c *CachedStore) prime(ctx context.Context, u *User) {
	data, err := json.Marshal(cachedUser{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		Role:           u.Role.String(),
	})
	if err != nil {
		c.logger.Warn("user cache encode failed", "email", u.Email, "error", err)
		return
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, emailKey(u.Email), data, userCacheTTL)
	pipe.Set(ctx, idKey(u.ID), data, userCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("user cache write failed", "email", u.Email, "error", err)
	}
}
