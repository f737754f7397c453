package get

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cotizador/internal/service/templates"
	"cotizador/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMappings struct {
	mock.Mock
}

func (m *MockMappings) GetMapping(ctx context.Context, kind, template string) (storage.TemplateMapping, error) {
	args := m.Called(ctx, kind, template)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.TemplateMapping), args.Error(1)
}

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(model string) (string, error) {
	args := m.Called(model)
	return args.String(0), args.Error(1)
}

func (m *MockResolver) ResolveFile(name string) (string, error) {
	args := m.Called(name)
	return args.String(0), args.Error(1)
}

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Placeholders(src string) ([]string, error) {
	args := m.Called(src)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMapping(t *testing.T) {
	mappings := new(MockMappings)
	mappings.On("GetMapping", mock.Anything, storage.KindPackaging, "CM780.docx").Return(storage.TemplateMapping{
		"precio_final": {Mode: storage.MappingModeField, Value: "total"},
	}, nil)

	r := chi.NewRouter()
	r.Get("/mappings/{kind}/{template}", Mapping(discard(), mappings))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mappings/packaging/CM780.docx", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseMapping
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "total", resp.Mapping["precio_final"].Value)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/mappings/other/CM780.docx", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPlaceholders(t *testing.T) {
	resolver := new(MockResolver)
	resolver.On("Resolve", "cm780").Return("/tpl/CM780.docx", nil)
	resolver.On("ResolveFile", "COTIZACION MATERIALS.docx").Return("/tpl/COTIZACION MATERIALS.docx", nil)
	resolver.On("Resolve", "XX").Return("", &templates.ModelNotAvailableError{Model: "XX"})
	resolver.On("Resolve", "BAD").Return("/tpl/BAD.docx", nil)

	scanner := new(MockScanner)
	scanner.On("Placeholders", "/tpl/CM780.docx").Return([]string{"cliente", "total"}, nil)
	scanner.On("Placeholders", "/tpl/COTIZACION MATERIALS.docx").Return(nil, nil)
	scanner.On("Placeholders", "/tpl/BAD.docx").Return(nil, errors.New("zip: not a valid zip file"))

	r := chi.NewRouter()
	r.Get("/templates/{model}/placeholders", Placeholders(discard(), resolver, scanner))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates/cm780/placeholders", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ResponsePlaceholders
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "CM780.docx", resp.Template)
	assert.Equal(t, []string{"cliente", "total"}, resp.Placeholders)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates/COTIZACION%20MATERIALS.docx/placeholders", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"placeholders":[]`)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates/XX/placeholders", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/templates/BAD/placeholders", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
