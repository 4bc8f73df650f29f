package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type deadLetters struct {
	mu      sync.Mutex
	entries []DLQEntry
}

func (d *deadLetters) push(_ context.Context, e DLQEntry) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, e)
	return nil
}

func testPool(handlers map[string]Handler) (*Pool, *deadLetters) {
	dl := &deadLetters{}
	p := NewPool(nil, handlers)
	p.backoff = func(int) time.Duration { return 0 }
	p.deadLetter = dl.push
	return p, dl
}

func encodeJob(t *testing.T, jobType string, payload any) []byte {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	raw, err := json.Marshal(Job{Type: jobType, Payload: data})
	require.NoError(t, err)
	return raw
}

func TestPool_ProcessSuccess(t *testing.T) {
	var calls int
	p, dl := testPool(map[string]Handler{
		"ping": HandlerFunc(func(context.Context, json.RawMessage) error { calls++; return nil }),
	})

	p.process(context.Background(), QueueNotifications, encodeJob(t, "ping", map[string]string{}))
	assert.Equal(t, 1, calls)
	assert.Empty(t, dl.entries)
}

func TestPool_RetriesUntilSuccess(t *testing.T) {
	var calls int
	p, dl := testPool(map[string]Handler{
		"flaky": HandlerFunc(func(context.Context, json.RawMessage) error {
			calls++
			if calls < maxAttempts {
				return errors.New("smtp timeout")
			}
			return nil
		}),
	})

	p.process(context.Background(), QueueNotifications, encodeJob(t, "flaky", map[string]string{}))
	assert.Equal(t, maxAttempts, calls)
	assert.Empty(t, dl.entries)
}

func TestPool_ExhaustedJobGoesToDLQ(t *testing.T) {
	var calls int
	p, dl := testPool(map[string]Handler{
		"broken": HandlerFunc(func(context.Context, json.RawMessage) error { calls++; return errors.New("relay down") }),
	})

	p.process(context.Background(), QueueStock, encodeJob(t, "broken", map[string]int{"n": 1}))
	assert.Equal(t, maxAttempts, calls)
	require.Len(t, dl.entries, 1)
	e := dl.entries[0]
	assert.Equal(t, QueueStock, e.OriginalQueue)
	assert.Equal(t, "broken", e.JobType)
	assert.Equal(t, "relay down", e.Reason)
	assert.Equal(t, maxAttempts, e.Attempts)
	assert.JSONEq(t, `{"n":1}`, string(e.Payload))
}

func TestPool_UnknownTypeAndGarbage(t *testing.T) {
	p, dl := testPool(map[string]Handler{})

	p.process(context.Background(), QueueStock, encodeJob(t, "mystery", map[string]string{}))
	p.process(context.Background(), QueueStock, []byte("not json"))

	require.Len(t, dl.entries, 2)
	assert.Equal(t, "mystery", dl.entries[0].JobType)
	assert.Contains(t, dl.entries[0].Reason, "no handler")
	assert.Equal(t, "unknown", dl.entries[1].JobType)
	assert.Zero(t, dl.entries[1].Attempts)
}

func TestPool_CancelStopsBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	p, dl := testPool(map[string]Handler{
		"slow": HandlerFunc(func(context.Context, json.RawMessage) error {
			calls++
			cancel()
			return errors.New("fail")
		}),
	})
	p.backoff = func(int) time.Duration { return time.Hour }

	p.process(ctx, QueueNotifications, encodeJob(t, "slow", map[string]string{}))
	assert.Equal(t, 1, calls)
	require.Len(t, dl.entries, 1)
	assert.Equal(t, 1, dl.entries[0].Attempts)
}

func TestDispatcher_EnqueuesJobs(t *testing.T) {
	type pushed struct {
		queue string
		job   Job
	}
	var got []pushed
	d := &Dispatcher{push: func(_ context.Context, queue string, data []byte) error {
		var j Job
		require.NoError(t, json.Unmarshal(data, &j))
		got = append(got, pushed{queue, j})
		return nil
	}}
	ctx := context.Background()

	inv := model.Invoice{Number: "INV-000007", Total: decimal.RequireFromString("66"), DueDate: time.Date(2026, 11, 13, 0, 0, 0, 0, time.UTC)}
	inv.ID = uuid.New()
	require.NoError(t, d.InvoiceIssued(ctx, inv, "ana@example.test"))

	part := model.Part{Name: "Filtro", SKU: "FO-1", Stock: 2}
	part.ID = uuid.New()
	require.NoError(t, d.LowStock(ctx, part, 3))

	require.Len(t, got, 2)
	assert.Equal(t, QueueNotifications, got[0].queue)
	assert.Equal(t, JobInvoiceIssued, got[0].job.Type)
	var ip InvoiceIssuedPayload
	require.NoError(t, json.Unmarshal(got[0].job.Payload, &ip))
	assert.Equal(t, "66.00", ip.Total)
	assert.Equal(t, "2026-11-13", ip.DueDate)
	assert.Equal(t, "ana@example.test", ip.To)

	assert.Equal(t, QueueStock, got[1].queue)
	var lp LowStockPayload
	require.NoError(t, json.Unmarshal(got[1].job.Payload, &lp))
	assert.Equal(t, LowStockPayload{PartID: part.ID.String(), Name: "Filtro", SKU: "FO-1", Stock: 2, Threshold: 3}, lp)
}

func TestDispatcher_WithoutRedisIsNoop(t *testing.T) {
	d := NewDispatcher(nil)
	assert.NoError(t, d.LowStock(context.Background(), model.Part{}, 3))
}

func TestDispatcher_PushErrorSurfaces(t *testing.T) {
	d := &Dispatcher{push: func(context.Context, string, []byte) error { return errors.New("conn refused") }}
	err := d.LowStock(context.Background(), model.Part{}, 3)
	assert.ErrorContains(t, err, "conn refused")
}
