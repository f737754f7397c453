package save

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cotizador/internal/lib/api"
	"cotizador/internal/storage"

	"github.com/go-chi/render"
)

type CatalogWriter interface {
	SetTemplate(ctx context.Context, tpl storage.MachineTemplate) error
	DeleteTemplate(ctx context.Context, name string) error
}

type Response struct {
	Status string `json:"status"`
	Name   string `json:"name"`
}

// templateName: ключ каталога это имя файла шаблона.
func templateName(model string) string {
	model = strings.TrimSpace(model)
	if model == "" || strings.EqualFold(filepath.Ext(model), ".docx") {
		return model
	}
	return model + ".docx"
}

func Put(log *slog.Logger, catalog CatalogWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.catalog.Put"

		name := templateName(api.URLParam(r, "model"))
		if name == "" {
			http.Error(w, "Missing required path parameter 'model'", http.StatusBadRequest)
			return
		}

		var tpl storage.MachineTemplate
		if err := render.DecodeJSON(r.Body, &tpl); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("Invalid template body")
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if tpl.BasePrice.IsNegative() {
			http.Error(w, "Base price must not be negative", http.StatusBadRequest)
			return
		}
		seen := make(map[string]bool, len(tpl.Options))
		for _, o := range tpl.Options {
			optName := strings.TrimSpace(o.Name)
			if optName == "" {
				http.Error(w, "Option name is required", http.StatusBadRequest)
				return
			}
			if seen[optName] {
				http.Error(w, "Duplicate option: "+optName, http.StatusBadRequest)
				return
			}
			seen[optName] = true
			if o.Spec.IsEmpty() {
				http.Error(w, "Select option without choices: "+optName, http.StatusBadRequest)
				return
			}
		}
		tpl.Name = name

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := catalog.SetTemplate(ctx, tpl); err != nil {
			log.With(slog.String("op", op), slog.String("name", name), slog.String("error", err.Error())).Error("Failed to save template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.With(slog.String("op", op), slog.String("name", name)).Info("Template saved")
		render.JSON(w, r, Response{Status: "ok", Name: name})
	}
}

func Delete(log *slog.Logger, catalog CatalogWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.catalog.Delete"

		model := api.URLParam(r, "model")

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		name := model
		err := catalog.DeleteTemplate(ctx, name)
		if errors.Is(err, storage.ErrTemplateNotFound) && templateName(model) != model {
			name = templateName(model)
			err = catalog.DeleteTemplate(ctx, name)
		}
		if err != nil {
			if errors.Is(err, storage.ErrTemplateNotFound) {
				http.Error(w, "Template not found", http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("name", name), slog.String("error", err.Error())).Error("Failed to delete template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.With(slog.String("op", op), slog.String("name", name)).Info("Template deleted")
		render.JSON(w, r, Response{Status: "ok", Name: name})
	}
}
