package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"social-go/internal/auth"
)

type redisTokenBlacklist struct {
	client redis.Cmdable
	prefix string
}

// NewRedisTokenBlacklist stores revoked jtis as keys that expire with the token.
func NewRedisTokenBlacklist(client redis.Cmdable, prefix string) auth.TokenBlacklist {
	return &redisTokenBlacklist{client: client, prefix: prefix + "bl:jti:"}
}

func (r *redisTokenBlacklist) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil // already expired, validation rejects it anyway
	}
	if err := r.client.Set(ctx, r.prefix+jti, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("blacklist jti %s: %w", jti, err)
	}
	return nil
}

func (r *redisTokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	err := r.client.Get(ctx, r.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check blacklist for jti %s: %w", jti, err)
	}
	return true, nil
}
