package get

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"cotizador/internal/storage"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) List(ctx context.Context, kind string) ([]storage.HistoryRecord, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.HistoryRecord), args.Error(1)
}

func (m *MockHistory) Summary(ctx context.Context) ([]storage.HistorySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.HistorySummary), args.Error(1)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestList(t *testing.T) {
	h := new(MockHistory)
	h.On("List", mock.Anything, storage.KindMaterials).Return([]storage.HistoryRecord{{ID: "1", Client: "Acme"}}, nil)
	h.On("List", mock.Anything, storage.KindPackaging).Return(nil, nil)

	rr := httptest.NewRecorder()
	List(discard(), h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?kind=materials", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ResponseHistory
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "materials", resp.Kind)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Acme", resp.Items[0].Client)

	// без kind берётся packaging, пустой список вместо null
	rr = httptest.NewRecorder()
	List(discard(), h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"items":[]`)
}

func TestList_Errors(t *testing.T) {
	h := new(MockHistory)
	h.On("List", mock.Anything, storage.KindPackaging).Return(nil, errors.New("read"))

	rr := httptest.NewRecorder()
	List(discard(), h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?kind=other", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	List(discard(), h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history?kind=packaging", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestSummary(t *testing.T) {
	h := new(MockHistory)
	h.On("Summary", mock.Anything).Return([]storage.HistorySummary{
		{Kind: storage.KindPackaging, Count: 2, Amount: decimal.NewFromInt(1500)},
	}, nil)

	rr := httptest.NewRecorder()
	Summary(discard(), h).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/history/summary", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []storage.HistorySummary
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 2, resp[0].Count)
}
