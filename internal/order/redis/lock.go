package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-campus/internal/logger"

	"github.com/go-redis/redis/v8"
)

const (
	checkoutLockPrefix = "checkout_lock:"
	holdPrefix         = "order_hold:"
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Redis struct {
	Client *redis.Client
	Logger *logger.Logger
}

func NewRedis(client *redis.Client, log *logger.Logger) *Redis {
	return &Redis{Client: client, Logger: log}
}

// AcquireCheckoutLock takes the per-user checkout lock. It reports false when
// another checkout for the same user holds it.
func (r *Redis) AcquireCheckoutLock(ctx context.Context, userID, token string, ttl time.Duration) (bool, error) {
	ok, err := r.Client.SetNX(ctx, checkoutLockPrefix+userID, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire checkout lock: %w", err)
	}
	return ok, nil
}

// ReleaseCheckoutLock frees the lock if token still owns it.
func (r *Redis) ReleaseCheckoutLock(ctx context.Context, userID, token string) error {
	err := releaseScript.Run(ctx, r.Client, []string{checkoutLockPrefix + userID}, token).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release checkout lock: %w", err)
	}
	return nil
}

// SetHold marks an order's reservation as live until ttl elapses. The key
// expiring is what triggers the release of the reserved stock.
func (r *Redis) SetHold(ctx context.Context, orderID string, ttl time.Duration) error {
	return r.Client.Set(ctx, holdPrefix+orderID, "1", ttl).Err()
}

func (r *Redis) DeleteHold(ctx context.Context, orderID string) error {
	return r.Client.Del(ctx, holdPrefix+orderID).Err()
}

func (r *Redis) HoldExists(ctx context.Context, orderID string) (bool, error) {
	n, err := r.Client.Exists(ctx, holdPrefix+orderID).Result()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// HoldOrderID extracts the order ID from an expired hold key.
func HoldOrderID(key string) (string, bool) {
	if !strings.HasPrefix(key, holdPrefix) {
		return "", false
	}
	id := strings.TrimPrefix(key, holdPrefix)
	return id, id != ""
}

// ExpiredChannel is the keyevent channel Redis publishes expirations on.
func ExpiredChannel(db int) string {
	return fmt.Sprintf("__keyevent@%d__:expired", db)
}

// EnableExpiryNotifications turns on expired-key events if the server allows
// it. Managed Redis often forbids CONFIG; the sweeper covers that case.
func (r *Redis) EnableExpiryNotifications(ctx context.Context) {
	cfg, err := r.Client.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err == nil && len(cfg) == 2 {
		if v, _ := cfg[1].(string); strings.Contains(v, "E") && (strings.Contains(v, "x") || strings.Contains(v, "A")) {
			return
		}
	}
	if err := r.Client.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		r.Logger.Warn("REDIS", fmt.Sprintf("could not enable keyspace notifications: %v", err))
		return
	}
	r.Logger.Info("REDIS", "Keyspace notifications enabled for expired keys")
}

// SubscribeHoldExpiry calls onExpire for each order hold that expires. It
// blocks until ctx is cancelled.
func (r *Redis) SubscribeHoldExpiry(ctx context.Context, db int, onExpire func(ctx context.Context, orderID string)) error {
	channel := ExpiredChannel(db)
	pubsub := r.Client.PSubscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	r.Logger.Info("REDIS", "Subscribed to "+channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			orderID, ok := HoldOrderID(msg.Payload)
			if !ok {
				continue
			}
			r.Logger.LogOrder("HOLD_EXPIRED", orderID, "reservation hold expired")
			onExpire(ctx, orderID)
		}
	}
}
