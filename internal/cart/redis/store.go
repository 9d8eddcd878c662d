package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"ms-campus/internal/models"

	"github.com/go-redis/redis/v8"
)

const cartPrefix = "cart:"

// CartStore keeps one Redis hash per user, field = line ID, value = JSON
// encoded models.CartLine. Every write refreshes the TTL.
type CartStore struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{Client: client, TTL: ttl}
}

func cartKey(userID string) string {
	return cartPrefix + userID
}

// Lines returns the cart lines ordered by the time they were added.
func (s *CartStore) Lines(ctx context.Context, userID string) ([]models.CartLine, error) {
	vals, err := s.Client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load cart of %s: %w", userID, err)
	}

	lines := make([]models.CartLine, 0, len(vals))
	for field, raw := range vals {
		var line models.CartLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			// Unreadable lines are dropped rather than failing the whole cart.
			s.Client.HDel(ctx, cartKey(userID), field)
			continue
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].AddedAt.Equal(lines[j].AddedAt) {
			return lines[i].AddedAt.Before(lines[j].AddedAt)
		}
		return lines[i].ID() < lines[j].ID()
	})
	return lines, nil
}

// Put inserts or replaces a line.
func (s *CartStore) Put(ctx context.Context, userID string, line models.CartLine) error {
	raw, err := json.Marshal(line)
	if err != nil {
		return err
	}
	key := cartKey(userID)
	pipe := s.Client.TxPipeline()
	pipe.HSet(ctx, key, line.ID(), raw)
	pipe.Expire(ctx, key, s.TTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save cart line for %s: %w", userID, err)
	}
	return nil
}

// Remove deletes a line and reports whether it existed.
func (s *CartStore) Remove(ctx context.Context, userID, lineID string) (bool, error) {
	n, err := s.Client.HDel(ctx, cartKey(userID), lineID).Result()
	if err != nil {
		return false, fmt.Errorf("remove cart line for %s: %w", userID, err)
	}
	return n > 0, nil
}

func (s *CartStore) Clear(ctx context.Context, userID string) error {
	return s.Client.Del(ctx, cartKey(userID)).Err()
}
