package storage

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrHistoryNotFound = errors.New("history record not found")

const (
	KindPackaging = "packaging"
	KindMaterials = "materials"
)

// HistoryRecord: запись журнала сгенерированных документов.
type HistoryRecord struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Date         time.Time       `json:"fecha"`
	Client       string          `json:"cliente"`
	Template     string          `json:"plantilla"`
	Amount       string          `json:"monto"`
	TotalNumeric decimal.Decimal `json:"total_numeric"`
	Currency     string          `json:"moneda"`
	Docx         string          `json:"docx"`
	PDF          string          `json:"pdf"`
}

type HistorySummary struct {
	Kind   string          `json:"kind"`
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

func ValidKind(kind string) bool {
	return kind == KindPackaging || kind == KindMaterials
}
