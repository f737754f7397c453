package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/storage"

	"github.com/go-chi/render"
)

type HistoryReader interface {
	List(ctx context.Context, kind string) ([]storage.HistoryRecord, error)
	Summary(ctx context.Context) ([]storage.HistorySummary, error)
}

type ResponseHistory struct {
	Kind  string                  `json:"kind"`
	Items []storage.HistoryRecord `json:"items"`
}

// KindParam: ?kind= с packaging по умолчанию; false для неизвестного вида.
func KindParam(r *http.Request) (string, bool) {
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = r.URL.Query().Get("type")
	}
	if kind == "" {
		return storage.KindPackaging, true
	}
	return kind, storage.ValidKind(kind)
}

func List(log *slog.Logger, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.List"

		kind, ok := KindParam(r)
		if !ok {
			http.Error(w, "Unknown history kind", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		items, err := history.List(ctx, kind)
		if err != nil {
			log.With(slog.String("op", op), slog.String("kind", kind), slog.String("error", err.Error())).Error("Failed to fetch history")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if items == nil {
			items = []storage.HistoryRecord{}
		}

		render.JSON(w, r, ResponseHistory{Kind: kind, Items: items})
	}
}

func Summary(log *slog.Logger, history HistoryReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.Summary"

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		summary, err := history.Summary(ctx)
		if err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to summarize history")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, summary)
	}
}
