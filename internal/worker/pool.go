package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueNotifications = "jobs:notifications"
	QueueStock         = "jobs:stock"

	JobInvoiceIssued = "invoice_issued"
	JobLowStock      = "low_stock"

	maxAttempts = 3
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload. A returned error triggers a retry.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

func (f HandlerFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

// Pool consumes the job queues with BRPOP and routes each job to the
// handler registered for its type. A job failing maxAttempts times goes
// to the dead letter queue.
type Pool struct {
	rdb        *redis.Client
	handlers   map[string]Handler
	queues     []string
	popTimeout time.Duration
	backoff    func(attempt int) time.Duration
	deadLetter func(ctx context.Context, e DLQEntry) error
	wg         sync.WaitGroup
}

func NewPool(rdb *redis.Client, handlers map[string]Handler) *Pool {
	p := &Pool{
		rdb:        rdb,
		handlers:   handlers,
		queues:     []string{QueueNotifications, QueueStock},
		popTimeout: 5 * time.Second,
		backoff:    func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
	}
	p.deadLetter = func(ctx context.Context, e DLQEntry) error { return pushDLQ(ctx, rdb, e) }
	return p
}

// Start launches n consumers. Each goroutine blocks on BRPOP, so idle
// workers cost no CPU. They stop when ctx is cancelled.
func (p *Pool) Start(ctx context.Context, n int) {
	for i := range n {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx, i)
		}()
	}
	log.Info().Int("workers", n).Strs("queues", p.queues).Msg("worker pool started")
}

// Wait blocks until every consumer has returned.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) run(ctx context.Context, id int) {
	for {
		if ctx.Err() != nil {
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		}
		// Blocking pop: waits up to popTimeout then loops to check ctx.
		result, err := p.rdb.BRPop(ctx, p.popTimeout, p.queues...).Result()
		if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
			log.Error().Err(err).Int("worker", id).Msg("brpop failed")
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}
		p.process(ctx, result[0], []byte(result[1]))
	}
}

func (p *Pool) process(ctx context.Context, queue string, raw []byte) {
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.bury(ctx, queue, Job{Type: "unknown", Payload: json.RawMessage(fmt.Sprintf("%q", raw))}, err, 0)
		return
	}
	h, ok := p.handlers[job.Type]
	if !ok {
		p.bury(ctx, queue, job, fmt.Errorf("no handler for job type %q", job.Type), 0)
		return
	}

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = h.Process(ctx, job.Payload); err == nil {
			log.Info().Str("type", job.Type).Str("queue", queue).Int("attempt", attempt).Msg("job processed")
			return
		}
		log.Warn().Err(err).Str("type", job.Type).Int("attempt", attempt).Msg("job failed")
		if attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			p.bury(context.WithoutCancel(ctx), queue, job, ctx.Err(), attempt)
			return
		case <-time.After(p.backoff(attempt)):
		}
	}
	p.bury(ctx, queue, job, err, maxAttempts)
}

func (p *Pool) bury(ctx context.Context, queue string, job Job, reason error, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason.Error(),
		FailedAt:      time.Now().UTC(),
		Attempts:      attempts,
	}
	if err := p.deadLetter(ctx, entry); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to push entry")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("job_type", job.Type).
		Str("reason", entry.Reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// StartWorkerPool builds a pool over handlers and starts n consumers.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, n int) *Pool {
	if n <= 0 {
		n = 1
	}
	p := NewPool(rdb, handlers)
	p.Start(ctx, n)
	return p
}
