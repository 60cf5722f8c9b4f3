package search

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Document is the denormalized summary written to the search backend after a
// lifecycle write.
type Document struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PlantID     string    `json:"plant_id"`
	AssetID     string    `json:"asset_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	SLADeadline time.Time `json:"sla_deadline"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key shapes: wos:search:doc:{id} and wos:search:{tenant}:orders.
const (
	docKeyTpl   = "wos:search:doc:%s"
	indexKeyTpl = "wos:search:%s:orders"
)

// RedisIndexer maintains per-order hash documents plus a per-tenant member
// set, enough for the external search consumer to rebuild its index.
type RedisIndexer struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisIndexer constructs the indexer.
func NewRedisIndexer(client *redis.Client, logger *zap.Logger) *RedisIndexer {
	return &RedisIndexer{client: client, logger: logger}
}

// Index upserts the document. Best effort; errors are reported to the caller
// for logging only.
func (i *RedisIndexer) Index(ctx context.Context, doc Document) error {
	if i.client == nil {
		return nil
	}
	docKey := fmt.Sprintf(docKeyTpl, doc.ID)
	fields := map[string]any{
		"tenant_id":    doc.TenantID,
		"plant_id":     doc.PlantID,
		"asset_id":     doc.AssetID,
		"title":        doc.Title,
		"status":       doc.Status,
		"priority":     doc.Priority,
		"sla_deadline": doc.SLADeadline.UTC().Format(time.RFC3339),
		"updated_at":   doc.UpdatedAt.UTC().Format(time.RFC3339),
	}

	pipe := i.client.TxPipeline()
	pipe.HSet(ctx, docKey, fields)
	pipe.SAdd(ctx, fmt.Sprintf(indexKeyTpl, doc.TenantID), doc.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index %s: %w", doc.ID, err)
	}
	i.logger.Debug("work order indexed", zap.String("work_order_id", doc.ID), zap.String("status", doc.Status))
	return nil
}
