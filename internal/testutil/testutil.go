// Package testutil provides an in-memory database and fixtures for package
// tests. It is imported only from _test.go files.
package testutil

import (
	"context"
	"fmt"
	"testing"

	"motorplus/internal/infra"
	"motorplus/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewDB opens a private shared-cache SQLite database with every table
// migrated. It is closed when the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := infra.NewDatabase("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixtures seeds reference rows with sensible defaults.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures { return &Fixtures{t: t, db: db} }

func (f *Fixtures) create(v any) {
	f.t.Helper()
	require.NoError(f.t, f.db.WithContext(context.Background()).Create(v).Error)
}

func (f *Fixtures) Client() *model.Client {
	c := &model.Client{FirstName: "Ana", LastName: "Gomez", Email: "ana@example.test", Phone: "555-0101"}
	f.create(c)
	return c
}

func (f *Fixtures) Service(price string) *model.Service {
	s := &model.Service{Name: "Servicio " + price, Price: decimal.RequireFromString(price), Active: true}
	f.create(s)
	return s
}

func (f *Fixtures) Mechanic(first string) *model.Mechanic {
	m := &model.Mechanic{FirstName: first, LastName: "Taller", Specialization: "motor", Active: true}
	f.create(m)
	return m
}

func (f *Fixtures) Part(stock int, price string) *model.Part {
	p := &model.Part{
		Name:      "Filtro",
		SKU:       "SKU-" + uuid.NewString()[:8],
		UnitPrice: decimal.RequireFromString(price),
		Stock:     stock,
		Active:    true,
	}
	f.create(p)
	return p
}

func (f *Fixtures) Order(clientID uuid.UUID, status model.OrderStatus) *model.Order {
	o := &model.Order{ClientID: clientID, LicensePlate: "ABC123", Status: status, Total: decimal.Zero}
	f.create(o)
	return o
}

// Stock reloads a part's stock straight from the table.
func (f *Fixtures) Stock(partID uuid.UUID) int {
	f.t.Helper()
	var p model.Part
	require.NoError(f.t, f.db.Where("id = ?", partID).First(&p).Error)
	return p.Stock
}

// User seeds an active user whose password is hashed at the minimum cost.
func (f *Fixtures) User(username, role, password string) *model.User {
	f.t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(f.t, err)
	u := &model.User{Username: username, Email: username + "@example.test", PasswordHash: string(hash), Role: role, Active: true}
	f.create(u)
	return u
}
