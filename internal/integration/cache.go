package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"gather/contracts/connector"
)

// SchemaCache keeps fetched connector schemas in Redis so repeated lookups do
// not hammer the external system. A nil cache is valid and disables caching.
type SchemaCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func NewSchemaCache(client *redis.Client, ttl time.Duration, log *slog.Logger) *SchemaCache {
	if client == nil {
		return nil
	}
	return &SchemaCache{client: client, ttl: ttl, log: log}
}

func (c *SchemaCache) Get(ctx context.Context, connID uuid.UUID, kind connector.SchemaKind, schemaID string) (*connector.Schema, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, cacheKey(connID, kind, schemaID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.WarnContext(ctx, "schema cache read failed", "error", err)
		return nil, false
	}

	var schema connector.Schema
	if err := json.Unmarshal(raw, &schema); err != nil {
		c.log.WarnContext(ctx, "schema cache entry corrupt", "error", err)
		return nil, false
	}
	return &schema, true
}

func (c *SchemaCache) Set(ctx context.Context, connID uuid.UUID, schema *connector.Schema) {
	if c == nil || schema == nil {
		return
	}

	raw, err := json.Marshal(schema)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(connID, schema.Kind, schema.ID), raw, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "schema cache write failed", "error", err)
	}
}

// Invalidate drops every cached schema for one connection, used when the
// connection is deleted or its credentials change.
func (c *SchemaCache) Invalidate(ctx context.Context, connID uuid.UUID) {
	if c == nil {
		return
	}

	pattern := fmt.Sprintf("connector:schema:%s:*", connID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.log.WarnContext(ctx, "schema cache invalidation failed", "key", iter.Val(), "error", err)
		}
	}
}

func cacheKey(connID uuid.UUID, kind connector.SchemaKind, schemaID string) string {
	return fmt.Sprintf("connector:schema:%s:%s:%s", connID, kind, schemaID)
}
