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

type HistoryDeleter interface {
	Delete(ctx context.Context, kind, id string) error
}

func Delete(log *slog.Logger, history HistoryDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.history.Delete"

		id := chi.URLParam(r, "id")
		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = storage.KindPackaging
		}
		if !storage.ValidKind(kind) {
			http.Error(w, "Unknown history kind", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := history.Delete(ctx, kind, id); err != nil {
			if errors.Is(err, storage.ErrHistoryNotFound) {
				http.Error(w, "History record not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("id", id), slog.String("error", err.Error())).Error("Failed to delete history record")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
