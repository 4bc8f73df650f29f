package worker

import (
	"context"
	"encoding/json"

	"motorplus/internal/model"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// InvoiceIssuedPayload is the QueueNotifications job for a newly issued
// invoice.
type InvoiceIssuedPayload struct {
	InvoiceID string `json:"invoice_id"`
	Number    string `json:"number"`
	To        string `json:"to"`
	Total     string `json:"total"`
	DueDate   string `json:"due_date"` // YYYY-MM-DD
}

// LowStockPayload is the QueueStock job for a part at or below threshold.
type LowStockPayload struct {
	PartID    string `json:"part_id"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// Dispatcher enqueues async jobs into Redis lists. It implements
// service.Notifier. Without a Redis client every enqueue is skipped.
type Dispatcher struct {
	push func(ctx context.Context, queue string, data []byte) error
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	if rdb == nil {
		return &Dispatcher{}
	}
	return &Dispatcher{push: func(ctx context.Context, queue string, data []byte) error {
		return rdb.LPush(ctx, queue, data).Err()
	}}
}

func (d *Dispatcher) InvoiceIssued(ctx context.Context, inv model.Invoice, to string) error {
	return d.enqueue(ctx, QueueNotifications, JobInvoiceIssued, InvoiceIssuedPayload{
		InvoiceID: inv.ID.String(),
		Number:    inv.Number,
		To:        to,
		Total:     inv.Total.StringFixed(2),
		DueDate:   inv.DueDate.Format("2006-01-02"),
	})
}

func (d *Dispatcher) LowStock(ctx context.Context, p model.Part, threshold int) error {
	return d.enqueue(ctx, QueueStock, JobLowStock, LowStockPayload{
		PartID:    p.ID.String(),
		Name:      p.Name,
		SKU:       p.SKU,
		Stock:     p.Stock,
		Threshold: threshold,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	if d.push == nil {
		log.Debug().Str("queue", queue).Str("type", jobType).Msg("redis disabled, job skipped")
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return errors.Wrap(err, "marshal job")
	}
	if err := d.push(ctx, queue, encoded); err != nil {
		return errors.Wrapf(err, "enqueue %s", jobType)
	}
	return nil
}
