package remove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type QuoteDeleter interface {
	DeleteQuote(ctx context.Context, kind, id string) error
}

func Delete(log *slog.Logger, quotes QuoteDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quotes.Delete"

		id := chi.URLParam(r, "id")
		kind := r.URL.Query().Get("type")
		if kind == "" {
			kind = storage.KindPackaging
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err := quotes.DeleteQuote(ctx, kind, id)
		if err != nil && !errors.Is(err, storage.ErrQuoteNotFound) {
			log.With(slog.String("op", op), slog.String("id", id), slog.String("error", err.Error())).Error("Failed to delete quote")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		// удаление несуществующей котировки не ошибка
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
