package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/lib/api"
	"cotizador/internal/storage"

	"github.com/go-chi/render"
)

type MappingWriter interface {
	SetMapping(ctx context.Context, kind, template string, mapping storage.TemplateMapping) error
}

// Mapping заменяет привязки плейсхолдеров шаблона целиком.
func Mapping(log *slog.Logger, mappings MappingWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.SaveMapping"

		kind := api.URLParam(r, "kind")
		template := api.URLParam(r, "template")
		if !storage.ValidKind(kind) {
			http.Error(w, "Unknown template kind", http.StatusBadRequest)
			return
		}
		if template == "" {
			http.Error(w, "Missing template", http.StatusBadRequest)
			return
		}

		var mapping storage.TemplateMapping
		if err := render.DecodeJSON(r.Body, &mapping); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		for placeholder, rule := range mapping {
			if rule.Mode != storage.MappingModeField && rule.Mode != storage.MappingModeText {
				http.Error(w, "Unknown mode for placeholder "+placeholder, http.StatusBadRequest)
				return
			}
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := mappings.SetMapping(ctx, kind, template, mapping); err != nil {
			log.With(slog.String("op", op), slog.String("template", template), slog.String("error", err.Error())).Error("Failed to save mapping")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		log.With(slog.String("op", op), slog.String("kind", kind), slog.String("template", template), slog.Int("rules", len(mapping))).Info("Mapping saved")
		render.JSON(w, r, map[string]string{"status": "ok"})
	}
}
