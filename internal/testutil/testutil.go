package testutil

import (
	"context"
	"database/sql"
	"testing"

	"ms-campus/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// tables lists every model the service persists, in dependency order.
var tables = []interface{}{
	(*models.User)(nil),
	(*models.Event)(nil),
	(*models.TicketTier)(nil),
	(*models.Order)(nil),
	(*models.Ticket)(nil),
	(*models.TicketCount)(nil),
	(*models.Item)(nil),
	(*models.PromoCode)(nil),
	(*models.Payment)(nil),
	(*models.WebhookReceipt)(nil),
}

// NewTestDB returns an in-memory SQLite database with every table created.
// It is closed when the test ends.
func NewTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// Every connection to :memory: is a separate database.
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	ctx := context.Background()
	for _, model := range tables {
		if _, err := bunDB.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", model, err)
		}
	}

	t.Cleanup(func() { _ = bunDB.Close() })
	return bunDB
}

// NewTestRedis starts a miniredis server and returns a client for it.
func NewTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}
