package get

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cotizador/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalog реализует CatalogReader для тестов
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Snapshot() storage.Catalog {
	args := m.Called()
	return args.Get(0).(storage.Catalog)
}

func (m *MockCatalog) GetTemplate(ctx context.Context, name string) (storage.MachineTemplate, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(storage.MachineTemplate), args.Error(1)
}

type staticModels []string

func (s staticModels) List(limit int) []string { return s }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func router(catalog CatalogReader) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/models", Models(discard(), staticModels{"CM780", "TS55"}, catalog))
	r.Get("/api/catalog", List(discard(), catalog))
	r.Get("/api/catalog/{model}", Get(discard(), catalog))
	return r
}

func sampleCatalog() storage.Catalog {
	return storage.Catalog{
		"CM780.docx": {Name: "CM780.docx", BasePrice: decimal.NewFromInt(1000), Options: []storage.NamedOption{
			{Name: "Gas Flush", Spec: storage.Checkbox(decimal.NewFromInt(50))},
		}},
		"CM1100.docx": {Name: "CM1100.docx", BasePrice: decimal.NewFromInt(2000)},
	}
}

func TestModels(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("Snapshot").Return(sampleCatalog())

	rr := httptest.NewRecorder()
	router(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ResponseModels
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, []string{"CM780", "TS55"}, resp.Models)
	assert.Equal(t, []string{"CM1100.docx", "CM780.docx"}, resp.Catalog)
}

func TestList(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("Snapshot").Return(sampleCatalog())

	rr := httptest.NewRecorder()
	router(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp ResponseCatalog
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "CM1100.docx", resp.Items[0].Name)
	assert.True(t, resp.Items[1].BasePrice.Equal(decimal.NewFromInt(1000)))
}

func TestGet_AddsDocxSuffix(t *testing.T) {
	notFound := fmt.Errorf("lookup: %w", storage.ErrTemplateNotFound)

	catalog := new(MockCatalog)
	catalog.On("GetTemplate", mock.Anything, "CM780").Return(storage.MachineTemplate{}, notFound)
	catalog.On("GetTemplate", mock.Anything, "CM780.docx").Return(sampleCatalog()["CM780.docx"], nil)

	rr := httptest.NewRecorder()
	router(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/CM780", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var tpl storage.MachineTemplate
	require.NoError(t, render.DecodeJSON(rr.Body, &tpl))
	assert.Equal(t, "CM780.docx", tpl.Name)
	require.Len(t, tpl.Options, 1)
	catalog.AssertExpectations(t)
}

func TestGet_Errors(t *testing.T) {
	catalog := new(MockCatalog)
	catalog.On("GetTemplate", mock.Anything, "X.docx").Return(storage.MachineTemplate{}, storage.ErrTemplateNotFound)
	catalog.On("GetTemplate", mock.Anything, "BOOM.docx").Return(storage.MachineTemplate{}, errors.New("io"))

	rr := httptest.NewRecorder()
	router(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/X.docx", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	router(catalog).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/catalog/BOOM.docx", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
