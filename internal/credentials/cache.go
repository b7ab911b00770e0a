package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/carebridge/ecw-bridge/internal/ecw"
)

// TokenCache keeps verified session tokens in Redis so request handling does
// not hit Postgres on every call. Entries expire on the session TTL; the EMR
// invalidates its sessions on roughly the same clock.
type TokenCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

// NewTokenCache initializes the cache.
func NewTokenCache(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *TokenCache {
	if client == nil {
		panic("credentials: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = 20 * time.Minute
	}
	if tracer == nil {
		tracer = otel.Tracer("ecwbridge.internal.credentials.cache")
	}
	return &TokenCache{redis: client, ttl: ttl, tracer: tracer}
}

// Save caches the tokens for a credential id.
func (c *TokenCache) Save(ctx context.Context, credentialID string, tokens ecw.AuthTokens) error {
	ctx, span := c.tracer.Start(ctx, "credentials.cache_save")
	defer span.End()

	data, err := json.Marshal(tokens)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("credentials: failed to marshal tokens: %w", err)
	}
	if err := c.redis.Set(ctx, tokenKey(credentialID), data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("credentials: failed to cache tokens: %w", err)
	}
	return nil
}

// Load returns the cached tokens, or ErrCredentialNotFound on a miss.
func (c *TokenCache) Load(ctx context.Context, credentialID string) (ecw.AuthTokens, error) {
	ctx, span := c.tracer.Start(ctx, "credentials.cache_load")
	defer span.End()

	data, err := c.redis.Get(ctx, tokenKey(credentialID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ecw.AuthTokens{}, ErrCredentialNotFound
		}
		span.RecordError(err)
		return ecw.AuthTokens{}, fmt.Errorf("credentials: failed to load cached tokens: %w", err)
	}

	var tokens ecw.AuthTokens
	if err := json.Unmarshal(data, &tokens); err != nil {
		span.RecordError(err)
		return ecw.AuthTokens{}, fmt.Errorf("credentials: failed to decode cached tokens: %w", err)
	}
	return tokens, nil
}

// Invalidate drops a credential's cached tokens.
func (c *TokenCache) Invalidate(ctx context.Context, credentialID string) error {
	ctx, span := c.tracer.Start(ctx, "credentials.cache_invalidate")
	defer span.End()

	if err := c.redis.Del(ctx, tokenKey(credentialID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("credentials: failed to invalidate tokens: %w", err)
	}
	return nil
}

func tokenKey(credentialID string) string {
	return fmt.Sprintf("ecw:tokens:%s", credentialID)
}
