package auth

import (
	"context"
	"fmt"
	"time"

	"clubevents/internal/domain"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "auth:revoked:"

// RedisRevoker keeps signed-out token ids in Redis until the token would have expired.
type RedisRevoker struct {
	client redis.Cmdable
	now    func() time.Time
}

var _ domain.SessionRevoker = (*RedisRevoker)(nil)

func NewRedisRevoker(client redis.Cmdable) *RedisRevoker {
	return &RedisRevoker{client: client, now: time.Now}
}

func (r *RedisRevoker) Revoke(ctx context.Context, identity *domain.Identity) error {
	if identity == nil || identity.TokenID == "" {
		return domain.NewValidationError("token", "has no id")
	}
	ttl := identity.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, revokedKeyPrefix+identity.TokenID, identity.UserID, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, identity *domain.Identity) (bool, error) {
	if identity == nil || identity.TokenID == "" {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKeyPrefix+identity.TokenID).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}
