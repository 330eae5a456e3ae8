package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TokenRevoker is the process-local revocation list used when Redis is not
// configured. Entries expire with the token lifespan.
type TokenRevoker struct {
	mu      sync.RWMutex
	revoked map[uuid.UUID]time.Time
}

func NewTokenRevoker() *TokenRevoker {
	return &TokenRevoker{revoked: make(map[uuid.UUID]time.Time)}
}

func (t *TokenRevoker) RevokeUser(_ context.Context, userID uuid.UUID, ttl time.Duration) error {
	t.mu.Lock()
	t.revoked[userID] = time.Now().Add(ttl)
	t.mu.Unlock()
	return nil
}

func (t *TokenRevoker) IsRevoked(_ context.Context, userID uuid.UUID) (bool, error) {
	now := time.Now()

	t.mu.RLock()
	expiresAt, ok := t.revoked[userID]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if !expiresAt.After(now) {
		t.mu.Lock()
		if exp, ok := t.revoked[userID]; ok && !exp.After(now) {
			delete(t.revoked, userID)
		}
		t.mu.Unlock()
		return false, nil
	}
	return true, nil
}
