package redis

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/logger"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping Redis integration test in short mode")
	}

	ctx := context.Background()
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}
	defer func() { _ = redisContainer.Terminate(ctx) }()

	host, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	port, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()})
	defer client.Close()
	locks := NewRedis(client, logger.NewNop())

	ok, err := locks.AcquireCheckoutLock(ctx, "u-1", "tok-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = locks.AcquireCheckoutLock(ctx, "u-1", "tok-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, locks.ReleaseCheckoutLock(ctx, "u-1", "tok-a"))
	ok, err = locks.AcquireCheckoutLock(ctx, "u-1", "tok-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// real key expiry drives the hold callback
	locks.EnableExpiryNotifications(ctx)
	expired := make(chan string, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		_ = locks.SubscribeHoldExpiry(subCtx, 0, func(_ context.Context, orderID string) {
			expired <- orderID
		})
	}()
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, locks.SetHold(ctx, "order-42", time.Second))
	select {
	case id := <-expired:
		assert.Equal(t, "order-42", id)
	case <-time.After(10 * time.Second):
		t.Fatal("hold expiry notification not received")
	}
}
