package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"cotizador/internal/config"
	"cotizador/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	// Подключаемся к тестовой БД, если она задана
	dsn := os.Getenv("COTIZADOR_TEST_DSN")
	if dsn != "" {
		var err error
		testDB, err = sql.Open("mysql", dsn)
		if err != nil {
			panic(fmt.Errorf("не удалось подключиться к тестовой БД: %w", err))
		}

		if err := testDB.Ping(); err != nil {
			panic(fmt.Errorf("ping failed: %w", err))
		}
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

func testStorage(t *testing.T) *Storage {
	t.Helper()
	if testDB == nil {
		t.Skip("COTIZADOR_TEST_DSN is not set")
	}

	s := NewWithDB(testDB)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DB{User: "u", Password: "p", Host: "db", Port: 3306, Name: "cot", ParseTime: true})
	assert.Equal(t, "u:p@tcp(db:3306)/cot?parseTime=true", dsn)
}

func TestUsers(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	name := "user-" + uuid.NewString()[:8]
	id, err := s.CreateUser(ctx, storage.User{Username: name, PasswordHash: "hash", LicenseKey: "LIC", Active: true})
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = s.CreateUser(ctx, storage.User{Username: name, PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrUserExists)

	u, err := s.GetUserByUsername(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, "LIC", u.LicenseKey)
	assert.True(t, u.Active)

	_, err = s.GetUserByUsername(ctx, "missing-"+name)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestQuotes(t *testing.T) {
	s := testStorage(t)
	ctx := context.Background()

	kind := "test-" + uuid.NewString()[:8]
	q := storage.Quote{
		ID:        uuid.NewString(),
		Kind:      kind,
		Client:    "Acme",
		Template:  "CM780.docx",
		Total:     decimal.RequireFromString("1050.50"),
		Currency:  "USD",
		Payload:   `{"cliente":"Acme"}`,
		CreatedBy: "admin",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.SaveQuote(ctx, q))

	// повторное сохранение заменяет запись
	q.Client = "Acme SA"
	require.NoError(t, s.SaveQuote(ctx, q))

	list, err := s.ListQuotes(ctx, kind)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Acme SA", list[0].Client)
	assert.True(t, list[0].Total.Equal(q.Total))

	metrics, err := s.QuoteMetrics(ctx)
	require.NoError(t, err)
	var found bool
	for _, m := range metrics {
		if m.Kind == kind {
			found = true
			assert.Equal(t, 1, m.Count)
			assert.True(t, m.Amount.Equal(q.Total))
		}
	}
	assert.True(t, found)

	require.NoError(t, s.DeleteQuote(ctx, kind, q.ID))
	assert.ErrorIs(t, s.DeleteQuote(ctx, kind, q.ID), storage.ErrQuoteNotFound)
}
