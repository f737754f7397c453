package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"cotizador/internal/lib/api"
	"cotizador/internal/service/templates"
	"cotizador/internal/storage"

	"github.com/go-chi/render"
)

type MappingReader interface {
	GetMapping(ctx context.Context, kind, template string) (storage.TemplateMapping, error)
}

type TemplateResolver interface {
	Resolve(model string) (string, error)
	ResolveFile(name string) (string, error)
}

type PlaceholderScanner interface {
	Placeholders(src string) ([]string, error)
}

type ResponseMapping struct {
	Kind     string                  `json:"kind"`
	Template string                  `json:"template"`
	Mapping  storage.TemplateMapping `json:"mapping"`
}

func Mapping(log *slog.Logger, mappings MappingReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Mapping"

		kind := api.URLParam(r, "kind")
		template := api.URLParam(r, "template")
		if !storage.ValidKind(kind) {
			http.Error(w, "Unknown template kind", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		mapping, err := mappings.GetMapping(ctx, kind, template)
		if err != nil {
			log.With(slog.String("op", op), slog.String("template", template), slog.String("error", err.Error())).Error("Failed to fetch mapping")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		render.JSON(w, r, ResponseMapping{Kind: kind, Template: template, Mapping: mapping})
	}
}

type ResponsePlaceholders struct {
	Template     string   `json:"template"`
	Placeholders []string `json:"placeholders"`
}

// Placeholders: {{…}} из документа Word модели или шаблона, указанного именем файла.
func Placeholders(log *slog.Logger, resolver TemplateResolver, scanner PlaceholderScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.admin.Placeholders"

		model := api.URLParam(r, "model")

		var (
			path string
			err  error
		)
		if strings.EqualFold(filepath.Ext(model), ".docx") {
			path, err = resolver.ResolveFile(model)
		} else {
			path, err = resolver.Resolve(model)
		}
		if err != nil {
			var notAvailable *templates.ModelNotAvailableError
			if errors.As(err, &notAvailable) || errors.Is(err, templates.ErrModelRequired) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			log.With(slog.String("op", op), slog.String("model", model), slog.String("error", err.Error())).Error("Failed to resolve template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		names, err := scanner.Placeholders(path)
		if err != nil {
			log.With(slog.String("op", op), slog.String("path", path), slog.String("error", err.Error())).Error("Failed to read template")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if names == nil {
			names = []string{}
		}

		render.JSON(w, r, ResponsePlaceholders{Template: filepath.Base(path), Placeholders: names})
	}
}
