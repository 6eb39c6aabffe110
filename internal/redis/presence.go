package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PresenceSet keeps each user's connection ids in a Redis set. Every
// operation runs as one MULTI/EXEC so the reported size and the mutation
// are observed atomically by concurrent chat servers.
type PresenceSet struct {
	client redis.Cmdable
	prefix string
}

func NewPresenceSet(client redis.Cmdable, prefix string) *PresenceSet {
	return &PresenceSet{client: client, prefix: prefix + "presence:"}
}

func (p *PresenceSet) key(userID string) string { return p.prefix + userID }

func (p *PresenceSet) Add(ctx context.Context, userID, connID string) (int64, error) {
	var before *redis.IntCmd
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		before = pipe.SCard(ctx, p.key(userID))
		pipe.SAdd(ctx, p.key(userID), connID)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("presence add %s: %w", userID, err)
	}
	return before.Val(), nil
}

func (p *PresenceSet) Remove(ctx context.Context, userID, connID string) (bool, int64, error) {
	var removed, after *redis.IntCmd
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, p.key(userID), connID)
		after = pipe.SCard(ctx, p.key(userID))
		return nil
	})
	if err != nil {
		return false, 0, fmt.Errorf("presence remove %s: %w", userID, err)
	}
	return removed.Val() > 0, after.Val(), nil
}

func (p *PresenceSet) Count(ctx context.Context, userID string) (int64, error) {
	n, err := p.client.SCard(ctx, p.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("presence count %s: %w", userID, err)
	}
	return n, nil
}
