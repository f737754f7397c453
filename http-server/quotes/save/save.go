package save

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cotizador/internal/middleware/auth"
	"cotizador/internal/storage"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type QuoteSaver interface {
	SaveQuote(ctx context.Context, q storage.Quote) error
}

type Request struct {
	Type  string          `json:"type"`
	Quote json.RawMessage `json:"quote"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

var totalKeys = []string{"total_numeric", "total_monto", "total"}

// Create сохраняет котировку; повторный id заменяет запись.
func Create(log *slog.Logger, quotes QuoteSaver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quotes.Create"

		var req Request
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid_payload"})
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(req.Quote, &payload); err != nil || payload == nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: "invalid_payload"})
			return
		}

		q := FromPayload(req.Type, payload)
		q.Payload = string(req.Quote)
		q.CreatedAt = time.Now().UTC()
		if claims, ok := auth.ClaimsFrom(r.Context()); ok {
			q.CreatedBy = claims.Username
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := quotes.SaveQuote(ctx, q); err != nil {
			log.With(slog.String("op", op), slog.String("id", q.ID), slog.String("error", err.Error())).Error("Failed to save quote")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"id": q.ID})
	}
}

// FromPayload достаёт из свободного JSON котировки поля для индексации.
func FromPayload(kind string, payload map[string]any) storage.Quote {
	if kind == "" {
		kind = storage.KindPackaging
	}

	q := storage.Quote{
		ID:       text(payload["id"]),
		Kind:     kind,
		Client:   first(payload, "cliente", "client"),
		Template: first(payload, "plantilla", "modelo", "template"),
		Currency: first(payload, "moneda", "currency"),
		Total:    decimal.Zero,
	}
	if q.ID == "" {
		q.ID = strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
	}

	for _, key := range totalKeys {
		if total, ok := amount(payload[key]); ok {
			q.Total = total
			break
		}
	}

	return q
}

func first(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := text(payload[k]); s != "" {
			return s
		}
	}
	return ""
}

func text(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func amount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case string:
		clean := strings.NewReplacer("US$", "", "$", "", ",", "").Replace(x)
		d, err := decimal.NewFromString(strings.TrimSpace(clean))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}
