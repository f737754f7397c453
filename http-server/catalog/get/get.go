package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cotizador/internal/lib/api"
	"cotizador/internal/storage"

	"github.com/go-chi/render"
)

type CatalogReader interface {
	Snapshot() storage.Catalog
	GetTemplate(ctx context.Context, name string) (storage.MachineTemplate, error)
}

type ModelLister interface {
	List(limit int) []string
}

type ResponseModels struct {
	Models  []string `json:"models"`
	Catalog []string `json:"catalog"`
}

// Models: модели, для которых есть шаблон Word, и имена шаблонов каталога.
func Models(log *slog.Logger, models ModelLister, catalog CatalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, ResponseModels{
			Models:  models.List(0),
			Catalog: catalog.Snapshot().Names(),
		})
	}
}

type ResponseCatalog struct {
	Items []storage.MachineTemplate `json:"items"`
	Count int                       `json:"count"`
}

func List(log *slog.Logger, catalog CatalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snapshot := catalog.Snapshot()

		items := make([]storage.MachineTemplate, 0, len(snapshot))
		for _, name := range snapshot.Names() {
			tpl := snapshot[name]
			tpl.Name = name
			items = append(items, tpl)
		}

		render.JSON(w, r, ResponseCatalog{Items: items, Count: len(items)})
	}
}

func Get(log *slog.Logger, catalog CatalogReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.catalog.Get"

		model := api.URLParam(r, "model")
		if model == "" {
			http.Error(w, "Missing required path parameter 'model'", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		tpl, err := catalog.GetTemplate(ctx, model)
		if errors.Is(err, storage.ErrTemplateNotFound) && !strings.HasSuffix(strings.ToLower(model), ".docx") {
			tpl, err = catalog.GetTemplate(ctx, model+".docx")
		}
		if err != nil {
			if errors.Is(err, storage.ErrTemplateNotFound) {
				log.With(slog.String("op", op), slog.String("model", model)).Warn("Template not found")
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}

			log.With(slog.String("op", op), slog.String("model", model), slog.String("error", err.Error())).Error("Failed to fetch template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, tpl)
	}
}
