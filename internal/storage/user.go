package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrQuoteNotFound = errors.New("quote not found")
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	LicenseKey   string    `json:"license_key"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Quote: котировка, сохранённая в многопользовательском бэкенде.
type Quote struct {
	ID        string          `json:"id"`
	Kind      string          `json:"type"`
	Client    string          `json:"cliente"`
	Template  string          `json:"plantilla"`
	Total     decimal.Decimal `json:"total"`
	Currency  string          `json:"moneda"`
	Payload   string          `json:"payload"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

type QuoteMetrics struct {
	Kind   string          `json:"type"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}
