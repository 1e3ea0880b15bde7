package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
)

const defaultUserCacheTTL = time.Minute

// UserCache is a read-through cache in front of a user directory for lookups
// by id, the hot path of every protected request.
// Key format: auth:user:<id>
//
// Cached records never contain the password hash; FindByUsername, which
// signin needs the hash from, always goes to the directory.
type UserCache struct {
	next   ports.UserDirectory
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewUserCache wraps next. A non-positive ttl selects defaultUserCacheTTL.
func NewUserCache(next ports.UserDirectory, client *redis.Client, ttl time.Duration, log zerolog.Logger) *UserCache {
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	return &UserCache{next: next, client: client, ttl: ttl, log: log}
}

type cachedUser struct {
	ID        string        `json:"id"`
	Username  string        `json:"username"`
	Email     string        `json:"email"`
	Roles     []domain.Role `json:"roles"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (c *UserCache) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	return c.next.Create(ctx, user)
}

func (c *UserCache) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return c.next.FindByUsername(ctx, username)
}

// FindByID serves from Redis when possible. Redis failures degrade to a
// directory read rather than failing the request.
func (c *UserCache) FindByID(ctx context.Context, id string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var cu cachedUser
		if jsonErr := json.Unmarshal(raw, &cu); jsonErr == nil {
			return cu.toDomain(), nil
		}
		c.log.Warn().Str("user_id", id).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("user_id", id).Msg("user cache read failed")
	}

	user, err := c.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := c.store(ctx, user); err != nil {
		c.log.Warn().Err(err).Str("user_id", id).Msg("user cache write failed")
	}
	return user, nil
}

// Invalidate drops the cached record for id.
func (c *UserCache) Invalidate(ctx context.Context, id string) error {
	return c.client.Del(ctx, c.key(id)).Err()
}

func (c *UserCache) store(ctx context.Context, user *domain.User) error {
	raw, err := json.Marshal(cachedUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Roles:     user.Roles,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return c.client.Set(ctx, c.key(user.ID), raw, c.ttl).Err()
}

func (c *UserCache) key(id string) string {
	return fmt.Sprintf("auth:user:%s", id)
}

func (cu cachedUser) toDomain() *domain.User {
	return &domain.User{
		ID:        cu.ID,
		Username:  cu.Username,
		Email:     cu.Email,
		Roles:     cu.Roles,
		CreatedAt: cu.CreatedAt,
		UpdatedAt: cu.UpdatedAt,
	}
}
