package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const tokenCachePrefix = "auth_token:"

// CachingVerifier remembers verified tokens in Redis so repeated requests
// with the same bearer token skip signature verification. Only a hash of the
// token is stored. TTL must stay well below the token lifetime.
type CachingVerifier struct {
	Client *redis.Client
	Next   TokenVerifier
	TTL    time.Duration
}

func NewCachingVerifier(client *redis.Client, next TokenVerifier, ttl time.Duration) *CachingVerifier {
	return &CachingVerifier{Client: client, Next: next, TTL: ttl}
}

func tokenKey(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return tokenCachePrefix + hex.EncodeToString(sum[:])
}

func (c *CachingVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	key := tokenKey(rawToken)

	// Redis errors fall through to real verification.
	if cached, err := c.Client.Get(ctx, key).Result(); err == nil {
		var id Identity
		if json.Unmarshal([]byte(cached), &id) == nil && id.Subject != "" {
			return &id, nil
		}
	}

	id, err := c.Next.Verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(id)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity: %w", err)
	}
	_ = c.Client.Set(ctx, key, payload, c.TTL).Err()
	return id, nil
}
