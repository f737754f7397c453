package generate

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cotizador/internal/service/quote"
	"cotizador/internal/service/templates"

	"github.com/go-chi/render"
)

type QuoteGenerator interface {
	Generate(ctx context.Context, req quote.Request) (*quote.Result, error)
	GenerateMaterials(ctx context.Context, req quote.MaterialsRequest) (*quote.Result, error)
}

// Генерация вместе с PDF может занять заметно больше обычного запроса
const generateTimeout = 2 * time.Minute

// Generate принимает свободное JSON-тело и отдаёт готовый файл: PDF, если он есть, иначе DOCX.
func Generate(log *slog.Logger, gen QuoteGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quote.Generate"

		var body map[string]any
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("Invalid request body")
			http.Error(w, "Cuerpo de solicitud inválido", http.StatusBadRequest)
			return
		}

		req, err := quote.ParseRequest(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
		defer cancel()

		res, err := gen.Generate(ctx, req)
		if err != nil {
			writeError(log, w, op, err)
			return
		}

		serveResult(log, w, r, op, res)
	}
}

func Materials(log *slog.Logger, gen QuoteGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quote.Materials"

		var req quote.MaterialsRequest
		if err := render.DecodeJSON(r.Body, &req); err != nil {
			log.With(slog.String("op", op), slog.String("error", err.Error())).Warn("Invalid request body")
			http.Error(w, "Cuerpo de solicitud inválido", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), generateTimeout)
		defer cancel()

		res, err := gen.GenerateMaterials(ctx, req)
		if err != nil {
			writeError(log, w, op, err)
			return
		}

		serveResult(log, w, r, op, res)
	}
}

func writeError(log *slog.Logger, w http.ResponseWriter, op string, err error) {
	var notAvailable *templates.ModelNotAvailableError
	switch {
	case errors.Is(err, templates.ErrModelRequired):
		http.Error(w, "Falta el modelo o la plantilla", http.StatusBadRequest)
	case errors.As(err, &notAvailable):
		log.With(slog.String("op", op), slog.String("model", notAvailable.Model)).Warn("Model not available")
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to generate quote")
		http.Error(w, "Error interno al generar la cotización", http.StatusInternalServerError)
	}
}

func serveResult(log *slog.Logger, w http.ResponseWriter, r *http.Request, op string, res *quote.Result) {
	path := res.PDFPath
	if path == "" {
		path = res.DocxPath
	}

	f, err := os.Open(path)
	if err != nil {
		log.With(slog.String("op", op), slog.String("path", path), slog.String("error", err.Error())).Error("Generated file is missing")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(path))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(path)}))
	w.Header().Set("X-Cotizacion-Id", res.ID)
	w.Header().Set("X-Cotizacion-Total", res.Total.StringFixed(2))
	if len(res.Warnings) > 0 {
		w.Header().Set("X-Cotizacion-Warnings", warningsHeader(res.Warnings))
	}

	http.ServeContent(w, r, filepath.Base(path), stat.ModTime(), f)
}

// warningsHeader: значения заголовка только ASCII, поэтому каждое предупреждение
// кодируется как в URL (decodeURIComponent на клиенте), разделитель запятая.
func warningsHeader(warnings []string) string {
	parts := make([]string, len(warnings))
	for i, w := range warnings {
		parts[i] = url.PathEscape(w)
	}
	return strings.Join(parts, ",")
}

func contentType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}
