package service

import (
	"context"
	"strings"
	"unicode"

	"motorplus/internal/apierror"
	"motorplus/internal/model"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notifier receives events that are delivered asynchronously after a
// transaction commits. worker.Dispatcher is the production implementation.
type Notifier interface {
	LowStock(ctx context.Context, part model.Part, threshold int) error
	InvoiceIssued(ctx context.Context, inv model.Invoice, to string) error
}

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// lookup translates a repository error: record-not-found becomes a NOT_FOUND
// domain error naming the entity, anything else is wrapped.
func lookup(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("%s %v no encontrado", entity, id)
	}
	return errors.Wrapf(err, "load %s", entity)
}

// parseID parses a UUID supplied by a caller, naming the field on failure.
func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, apierror.Invalid("%s invalido: %q", field, raw)
	}
	return id, nil
}

// normalizePlate upper-cases a license plate and drops spaces and hyphens,
// so "ab 123", "AB-123" and "AB123" name the same vehicle.
func normalizePlate(p string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToUpper(r)
	}, p)
}
