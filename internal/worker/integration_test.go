//go:build integration

package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"motorplus/internal/infra"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()
	c, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	url, err := c.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisRoundTrip(t *testing.T) {
	rdb := startRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan LowStockPayload, 1)
	handlers := map[string]Handler{
		JobLowStock: HandlerFunc(func(_ context.Context, raw json.RawMessage) error {
			var p LowStockPayload
			if err := json.Unmarshal(raw, &p); err != nil {
				return err
			}
			done <- p
			return nil
		}),
		JobInvoiceIssued: HandlerFunc(func(context.Context, json.RawMessage) error { return errors.New("smtp down") }),
	}
	pool := NewPool(rdb, handlers)
	pool.popTimeout = 200 * time.Millisecond
	pool.backoff = func(int) time.Duration { return 10 * time.Millisecond }
	pool.Start(ctx, 2)

	d := NewDispatcher(rdb)
	part := model.Part{Name: "Filtro", SKU: "FO-1", Stock: 1}
	part.ID = uuid.New()
	require.NoError(t, d.LowStock(ctx, part, 3))

	select {
	case p := <-done:
		assert.Equal(t, "FO-1", p.SKU)
	case <-time.After(10 * time.Second):
		t.Fatal("low stock job never processed")
	}

	require.NoError(t, d.InvoiceIssued(ctx, model.Invoice{Number: "INV-000001"}, "ana@example.test"))
	require.Eventually(t, func() bool {
		n, err := DLQLength(ctx, rdb, QueueNotifications)
		return err == nil && n == 1
	}, 10*time.Second, 50*time.Millisecond)

	entries, err := DLQEntries(ctx, rdb, QueueNotifications, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, JobInvoiceIssued, entries[0].JobType)
	assert.Equal(t, "smtp down", entries[0].Reason)
	assert.False(t, entries[0].FailedAt.IsZero())

	cancel()
	pool.Wait()
}
