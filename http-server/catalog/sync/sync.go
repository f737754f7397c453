package sync

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	catalogsync "cotizador/internal/service/catalog-sync"

	"github.com/go-chi/render"
)

type CatalogSyncer interface {
	Status() catalogsync.Status
	Sync(ctx context.Context, force bool) catalogsync.Status
}

func Status(log *slog.Logger, syncer CatalogSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, syncer.Status())
	}
}

// Trigger запускает синхронизацию; ?force=false уважает TTL.
func Trigger(log *slog.Logger, syncer CatalogSyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.catalog.SyncTrigger"

		force := r.URL.Query().Get("force") != "false"

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
		defer cancel()

		status := syncer.Sync(ctx, force)
		if !status.OK {
			log.With(slog.String("op", op), slog.String("error", status.Error)).Warn("Catalog sync failed")
			render.Status(r, http.StatusBadGateway)
		}

		render.JSON(w, r, status)
	}
}
