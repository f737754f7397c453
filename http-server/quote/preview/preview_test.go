package preview

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cotizador/internal/service/quote"
	"cotizador/internal/service/templates"

	"github.com/go-chi/render"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPreviewer struct {
	mock.Mock
}

func (m *MockPreviewer) Preview(ctx context.Context, req quote.Request) (*quote.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quote.Result), args.Error(1)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPreview_Success(t *testing.T) {
	p := new(MockPreviewer)
	p.On("Preview", mock.Anything, mock.MatchedBy(func(req quote.Request) bool {
		return req.Model == "CM780"
	})).Return(&quote.Result{
		Model:        "CM780",
		Total:        decimal.NewFromInt(1050),
		TotalText:    "US$ 1,050.00",
		Placeholders: map[string]string{"total": "US$ 1,050.00"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/preview", strings.NewReader(`{"modelo":"CM780"}`))
	rr := httptest.NewRecorder()
	Preview(discard(), p).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Result struct {
			Model        string            `json:"modelo"`
			TotalText    string            `json:"total_texto"`
			Placeholders map[string]string `json:"placeholders"`
		} `json:"result"`
	}
	require.NoError(t, render.DecodeJSON(rr.Body, &resp))
	assert.Equal(t, "CM780", resp.Result.Model)
	assert.Equal(t, "US$ 1,050.00", resp.Result.Placeholders["total"])
}

func TestPreview_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "unknown model", err: &templates.ModelNotAvailableError{Model: "XX"}, code: http.StatusBadRequest},
		{name: "internal", err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := new(MockPreviewer)
			p.On("Preview", mock.Anything, mock.Anything).Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodPost, "/api/quotes/preview", strings.NewReader(`{"modelo":"XX"}`))
			rr := httptest.NewRecorder()
			Preview(discard(), p).ServeHTTP(rr, req)

			assert.Equal(t, tt.code, rr.Code)
			var resp Response
			require.NoError(t, render.DecodeJSON(rr.Body, &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}
