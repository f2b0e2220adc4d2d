package redis

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type DedupeStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
}

func NewDedupeStore(client *redis.Client, logger *zap.Logger) *DedupeStore {
	return &DedupeStore{client: client, logger: logger, keyPrefix: "log:", ttl: 24 * time.Hour}
}

// Seen marks the key as observed and reports whether it had been observed
// before. A store failure reports the key as unseen so records are never
// dropped on a flaky connection.
func (s *DedupeStore) Seen(ctx context.Context, key string) bool {
	fresh, err := s.client.SetNX(ctx, s.keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		s.logger.Error("dedupe check failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return !fresh
}
