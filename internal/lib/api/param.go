package api

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
)

// URLParam возвращает параметр пути chi без %-кодирования, "COTIZACION%20MATERIALS.docx" -> "COTIZACION MATERIALS.docx".
func URLParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		raw = v
	}
	return strings.TrimSpace(raw)
}
