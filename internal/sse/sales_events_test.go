package sse

import (
	"context"
	"testing"
	"time"

	"ms-campus/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitSaleReachesEventSubscribers(t *testing.T) {
	e := NewSalesEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := e.SubscribeToEvent(ctx, "evt-1")
	b := e.SubscribeToEvent(ctx, "evt-2")
	assert.Equal(t, 1, e.GetEventClientCount("evt-1"))

	e.EmitSale(models.SaleEvent{EventID: "evt-1", OrderID: "o-1", Quantity: 2})

	select {
	case sale := <-a:
		assert.Equal(t, "o-1", sale.OrderID)
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive the sale")
	}
	assert.Len(t, b, 0)
}

func TestSubscriberRemovedOnCancel(t *testing.T) {
	e := NewSalesEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	ch := e.SubscribeToEvent(ctx, "evt-1")

	cancel()
	require.Eventually(t, func() bool { return e.GetEventClientCount("evt-1") == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-ch
	assert.False(t, open)
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	e := NewSalesEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.SubscribeToEvent(ctx, "evt-1")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			e.EmitSale(models.SaleEvent{EventID: "evt-1"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emitting blocked on a full client buffer")
	}
}
