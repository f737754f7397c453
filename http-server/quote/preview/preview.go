package preview

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cotizador/internal/service/quote"
	"cotizador/internal/service/templates"

	"github.com/go-chi/render"
)

type QuotePreviewer interface {
	Preview(ctx context.Context, req quote.Request) (*quote.Result, error)
}

type Response struct {
	Result *quote.Result `json:"result,omitempty"`
	Error  string        `json:"error,omitempty"`
}

// Preview считает котировку и возвращает контекст и плейсхолдеры без создания файлов.
func Preview(log *slog.Logger, previewer QuotePreviewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.quote.Preview"

		var body map[string]any
		if err := render.DecodeJSON(r.Body, &body); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, Response{Error: "Cuerpo de solicitud inválido"})
			return
		}

		req, err := quote.ParseRequest(body)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, Response{Error: err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := previewer.Preview(ctx, req)
		if err != nil {
			var notAvailable *templates.ModelNotAvailableError
			if errors.Is(err, templates.ErrModelRequired) || errors.As(err, &notAvailable) {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, Response{Error: err.Error()})
				return
			}

			log.With(slog.String("op", op), slog.String("error", err.Error())).Error("Failed to preview quote")
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, Response{Error: "Internal server error"})
			return
		}

		render.JSON(w, r, Response{Result: res})
	}
}
