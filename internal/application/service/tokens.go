package service

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenRevoker invalidates every token already issued to a user.
type TokenRevoker interface {
	RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error
	IsRevoked(ctx context.Context, userID uuid.UUID) (bool, error)
}
