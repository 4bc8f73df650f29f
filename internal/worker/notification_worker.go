package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"motorplus/internal/infra"
	"motorplus/internal/model"
	"motorplus/internal/repository"

	"github.com/go-faster/errors"
	"github.com/rs/zerolog/log"
)

// Sender delivers a plain-text email. *infra.Mailer implements it.
type Sender interface {
	Send(to []string, subject, body string) error
}

// guardedSend routes a send through the breaker. A disabled mailer is
// not a failure: the job is dropped with a log line.
func guardedSend(cb *infra.CircuitBreaker, s Sender, to []string, subject, body string) error {
	err := cb.Execute(func() error {
		err := s.Send(to, subject, body)
		if errors.Is(err, infra.ErrMailerDisabled) {
			return nil
		}
		return err
	})
	return err
}

// NotificationWorker emails clients when their invoice is issued.
type NotificationWorker struct {
	sender  Sender
	breaker *infra.CircuitBreaker
}

func NewNotificationWorker(sender Sender, breaker *infra.CircuitBreaker) *NotificationWorker {
	return &NotificationWorker{sender: sender, breaker: breaker}
}

func (w *NotificationWorker) Process(_ context.Context, raw json.RawMessage) error {
	var p InvoiceIssuedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(err, "invalid invoice payload")
	}
	if p.To == "" {
		log.Warn().Str("invoice", p.Number).Msg("notification_worker: empty recipient, skipping")
		return nil
	}
	subject := fmt.Sprintf("Factura %s", p.Number)
	body := fmt.Sprintf("Su factura %s por un total de $%s fue emitida. Vence el %s.\n\nMotorPlus Taller", p.Number, p.Total, p.DueDate)
	if err := guardedSend(w.breaker, w.sender, []string{p.To}, subject, body); err != nil {
		return errors.Wrapf(err, "send invoice %s", p.Number)
	}
	log.Info().Str("invoice", p.Number).Str("to", p.To).Msg("notification_worker: invoice email sent")
	return nil
}

// StockAlertWorker emails every active admin with an address when a part
// runs low. alertEmail, when set, is always copied.
type StockAlertWorker struct {
	sender     Sender
	breaker    *infra.CircuitBreaker
	users      repository.UserRepository
	alertEmail string
}

func NewStockAlertWorker(sender Sender, breaker *infra.CircuitBreaker, users repository.UserRepository, alertEmail string) *StockAlertWorker {
	return &StockAlertWorker{sender: sender, breaker: breaker, users: users, alertEmail: alertEmail}
}

func (w *StockAlertWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p LowStockPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return errors.Wrap(err, "invalid stock payload")
	}
	users, err := w.users.List(ctx)
	if err != nil {
		return errors.Wrap(err, "load admins")
	}
	var to []string
	seen := map[string]bool{}
	add := func(addr string) {
		if addr != "" && !seen[addr] {
			seen[addr] = true
			to = append(to, addr)
		}
	}
	add(w.alertEmail)
	for _, u := range users {
		if u.Active && u.Role == model.RoleAdmin {
			add(u.Email)
		}
	}
	if len(to) == 0 {
		log.Warn().Str("sku", p.SKU).Msg("stock_alert_worker: no admin recipients")
		return nil
	}
	subject := fmt.Sprintf("Stock bajo: %s (%s)", p.Name, p.SKU)
	body := fmt.Sprintf("El repuesto %s (%s) tiene %d unidades; el umbral es %d.", p.Name, p.SKU, p.Stock, p.Threshold)
	if err := guardedSend(w.breaker, w.sender, to, subject, body); err != nil {
		return errors.Wrapf(err, "send stock alert %s", p.SKU)
	}
	log.Info().Str("sku", p.SKU).Int("stock", p.Stock).Int("recipients", len(to)).Msg("stock_alert_worker: alert sent")
	return nil
}

// Handlers maps each job type to its worker.
func Handlers(n *NotificationWorker, s *StockAlertWorker) map[string]Handler {
	return map[string]Handler{
		JobInvoiceIssued: n,
		JobLowStock:      s,
	}
}
