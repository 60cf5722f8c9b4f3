package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key templates under one global prefix so environments can share a Redis.
const (
	keyPrefix = "wos"

	workOrderKeyTpl = "%s:%s:%s:workorder:%s" // {prefix}:{tenant}:{plant}:workorder:{id}
	listKeyTpl      = "%s:%s:%s:workorders"   // {prefix}:{tenant}:{plant}:workorders
)

// RedisInvalidator drops cached work-order entries after a lifecycle write.
type RedisInvalidator struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisInvalidator constructs the invalidator.
func NewRedisInvalidator(client *redis.Client, logger *zap.Logger) *RedisInvalidator {
	return &RedisInvalidator{client: client, logger: logger}
}

// Invalidate removes the per-order entry (when an id is given) and always the
// plant-level list entry. Best effort: the first failed DEL aborts the call
// and the error is reported to the caller, who logs and moves on.
func (i *RedisInvalidator) Invalidate(ctx context.Context, tenantID, plantID, workOrderID string) error {
	if i.client == nil {
		return nil
	}
	keys := []string{fmt.Sprintf(listKeyTpl, keyPrefix, tenantID, plantID)}
	if workOrderID != "" {
		keys = append(keys, fmt.Sprintf(workOrderKeyTpl, keyPrefix, tenantID, plantID, workOrderID))
	}
	if err := i.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate %v: %w", keys, err)
	}
	i.logger.Debug("cache invalidated", zap.Strings("keys", keys))
	return nil
}
