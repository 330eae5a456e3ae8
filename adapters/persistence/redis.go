package persistence

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/devprofile/internal/config"
	"github.com/khoahotran/devprofile/pkg/logger"
)

func NewRedisClient(cfg config.Config, log logger.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("can not connect Redis: %w", err)
	}

	log.Info("Connect Redis successfully.")
	return rdb, nil
}

// RedisTokenRevoker keeps one key per deleted user for as long as any token
// issued to that user could still validate. With a nil client every check
// passes, so the API keeps serving when Redis is down.
type RedisTokenRevoker struct {
	client *redis.Client
	logger logger.Logger

	warnedUnavailable atomic.Bool
}

func NewRedisTokenRevoker(client *redis.Client, log logger.Logger) *RedisTokenRevoker {
	return &RedisTokenRevoker{client: client, logger: log}
}

func revokedKey(userID uuid.UUID) string {
	return "revoked:user:" + userID.String()
}

func (r *RedisTokenRevoker) RevokeUser(ctx context.Context, userID uuid.UUID, ttl time.Duration) error {
	if r.client == nil {
		r.warnUnavailableOnce(nil)
		return nil
	}
	if err := r.client.Set(ctx, revokedKey(userID), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return fmt.Errorf("revoke tokens of %s: %w", userID, err)
	}
	return nil
}

func (r *RedisTokenRevoker) IsRevoked(ctx context.Context, userID uuid.UUID) (bool, error) {
	if r.client == nil {
		return false, nil
	}
	n, err := r.client.Exists(ctx, revokedKey(userID)).Result()
	if err != nil {
		r.warnUnavailableOnce(err)
		return false, err
	}
	return n > 0, nil
}

func (r *RedisTokenRevoker) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Error("Redis unavailable, token revocation bypassed", err)
	}
}
