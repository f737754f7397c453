package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/storage"

	"github.com/go-chi/render"
	"github.com/goccy/go-json"
)

type QuoteReader interface {
	ListQuotes(ctx context.Context, kind string) ([]storage.Quote, error)
	QuoteMetrics(ctx context.Context) ([]storage.QuoteMetrics, error)
}

type Item struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type ResponseList struct {
	Items []Item `json:"items"`
}

type Metric struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

func List(log *slog.Logger, quotes QuoteReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quotes.List"

		kind := r.URL.Query().Get("type")
		if kind == "" {
			kind = storage.KindPackaging
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rows, err := quotes.ListQuotes(ctx, kind)
		if err != nil {
			log.With(slog.String("op", op), slog.String("kind", kind), slog.String("error", err.Error())).Error("Failed to fetch quotes")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := ResponseList{Items: make([]Item, 0, len(rows))}
		for _, q := range rows {
			payload := json.RawMessage(q.Payload)
			if !json.Valid(payload) {
				payload = json.RawMessage("{}")
			}
			resp.Items = append(resp.Items, Item{ID: q.ID, Payload: payload, CreatedAt: q.CreatedAt})
		}

		render.JSON(w, r, resp)
	}
}

// Metrics: количество и сумма котировок по видам: {"packaging": {"count": 2, "amount": 1500}}.
func Metrics(log *slog.Logger, quotes QuoteReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quotes.Metrics"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		rows, err := quotes.QuoteMetrics(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to fetch metrics")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		resp := make(map[string]Metric, len(rows))
		for _, m := range rows {
			amount, _ := m.Amount.Float64()
			resp[m.Kind] = Metric{Count: m.Count, Amount: amount}
		}

		render.JSON(w, r, resp)
	}
}
