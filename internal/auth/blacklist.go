package auth

import (
	"context"
	"sync"
	"time"
)

// TokenBlacklist stores revoked token ids (jti) until the token would have expired anyway.
type TokenBlacklist interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// MemoryBlacklist is a process-local TokenBlacklist for tests and single-instance runs.
type MemoryBlacklist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{revoked: make(map[string]time.Time)}
}

func (b *MemoryBlacklist) Add(_ context.Context, jti string, expiresAt time.Time) error {
	if !time.Now().Before(expiresAt) {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[jti] = expiresAt
	return nil
}

func (b *MemoryBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	exp, ok := b.revoked[jti]
	if !ok {
		return false, nil
	}
	if !time.Now().Before(exp) {
		delete(b.revoked, jti)
		return false, nil
	}
	return true, nil
}
