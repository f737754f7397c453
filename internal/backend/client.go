package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	authsvc "cotizador/internal/service/auth"
	"cotizador/internal/storage"

	"github.com/cenkalti/backoff/v4"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var (
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrUnavailable  = errors.New("backend: unavailable")
	ErrDisabled     = errors.New("backend: url is not configured")
)

// RemoteQuote: котировка в ответе GET /api/quotes.
type RemoteQuote struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type Metric struct {
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// Client ходит в многопользовательский бэкенд с bearer-токеном.
type Client struct {
	log        *slog.Logger
	baseURL    string
	http       *http.Client
	maxElapsed time.Duration

	mu    sync.RWMutex
	token string
}

func New(log *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		log:        log,
		baseURL:    strings.TrimRight(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		maxElapsed: 30 * time.Second,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Login получает токен и запоминает его для следующих запросов.
func (c *Client) Login(ctx context.Context, username, password, deviceID, licenseKey string) (authsvc.LoginResult, error) {
	var res authsvc.LoginResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", authsvc.LoginRequest{
		Username:   username,
		Password:   password,
		DeviceID:   deviceID,
		LicenseKey: licenseKey,
	}, &res)
	if err != nil {
		return authsvc.LoginResult{}, err
	}

	c.SetToken(res.Token)
	return res, nil
}

func (c *Client) ValidateToken(ctx context.Context) (authsvc.TokenInfo, error) {
	var info authsvc.TokenInfo
	err := c.do(ctx, http.MethodGet, "/api/auth/token", nil, &info)
	return info, err
}

func (c *Client) ListQuotes(ctx context.Context, kind string) ([]RemoteQuote, error) {
	var res struct {
		Items []RemoteQuote `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quotes?type="+url.QueryEscape(kind), nil, &res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

func (c *Client) CreateQuote(ctx context.Context, kind string, quote map[string]any) (string, error) {
	var res struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodPost, "/api/quotes", map[string]any{"type": kind, "quote": quote}, &res)
	return res.ID, err
}

func (c *Client) DeleteQuote(ctx context.Context, kind, id string) error {
	path := "/api/quotes/" + url.PathEscape(id) + "?type=" + url.QueryEscape(kind)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) Metrics(ctx context.Context) (map[string]Metric, error) {
	res := map[string]Metric{}
	err := c.do(ctx, http.MethodGet, "/api/metrics/summary", nil, &res)
	return res, err
}

// ToStorageMetrics переводит ответ в формат хранилища, по алфавиту видов.
func ToStorageMetrics(m map[string]Metric) []storage.QuoteMetrics {
	out := make([]storage.QuoteMetrics, 0, len(m))
	for kind, v := range m {
		out = append(out, storage.QuoteMetrics{Kind: kind, Count: v.Count, Amount: decimal.NewFromFloat(v.Amount)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	const op = "backend.Client.do"

	if !c.Enabled() {
		return ErrDisabled
	}

	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal: %w", op, err)
		}
	}

	var resp *http.Response

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = c.maxElapsed
	retryPolicy.MaxInterval = 5 * time.Second

	// повторяем только сетевые ошибки, ответ сервера окончателен
	err := backoff.RetryNotify(
		func() error {
			req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("Accept", "application/json")
			if in != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			if token := c.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err = c.http.Do(req)
			return err
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, d time.Duration) {
			c.log.Warn("backend request failed, retrying",
				slog.String("path", path),
				slog.String("error", err.Error()),
				slog.Duration("next_attempt_in", d))
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, errorCode(data))
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, errorCode(data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}

func errorCode(data []byte) string {
	var res struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &res) == nil && res.Error != "" {
		return res.Error
	}
	return strings.TrimSpace(string(data))
}
