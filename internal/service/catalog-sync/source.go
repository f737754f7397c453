package catalog_sync

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

var ErrNoSource = errors.New("catalog source is not configured")

// Source отдаёт строки листов машин и цен и название режима.
type Source interface {
	Rows(ctx context.Context) (machines, prices []Row, mode string, err error)
}

// XLSXSource читает локальную книгу Excel.
type XLSXSource struct {
	Path          string
	MachinesSheet string
	PricesSheet   string
}

func (s XLSXSource) Rows(ctx context.Context) ([]Row, []Row, string, error) {
	const op = "service.catalog_sync.XLSXSource.Rows"

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: open %s: %w", op, s.Path, err)
	}
	defer f.Close()

	machines, err := f.GetRows(s.MachinesSheet)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: sheet %s: %w", op, s.MachinesSheet, err)
	}
	prices, err := f.GetRows(s.PricesSheet)
	if err != nil {
		return nil, nil, "", fmt.Errorf("%s: sheet %s: %w", op, s.PricesSheet, err)
	}

	return rowsFromGrid(machines), rowsFromGrid(prices), "xlsx", nil
}

// SheetsCSVSource читает публичную таблицу Google через CSV-экспорт листов.
type SheetsCSVSource struct {
	log           *slog.Logger
	client        *http.Client
	baseURL       string
	sheetID       string
	machinesSheet string
	pricesSheet   string
	maxElapsed    time.Duration
}

func NewSheetsCSVSource(log *slog.Logger, sheetID, machinesSheet, pricesSheet string, timeout time.Duration) *SheetsCSVSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &SheetsCSVSource{
		log:           log,
		client:        &http.Client{Timeout: timeout},
		baseURL:       "https://docs.google.com/spreadsheets/d/",
		sheetID:       sheetID,
		machinesSheet: machinesSheet,
		pricesSheet:   pricesSheet,
		maxElapsed:    time.Minute,
	}
}

// SheetURL: адрес CSV-экспорта листа.
func (s *SheetsCSVSource) SheetURL(sheet string) string {
	return s.baseURL + url.PathEscape(s.sheetID) + "/gviz/tq?tqx=out:csv&sheet=" + url.QueryEscape(sheet)
}

func (s *SheetsCSVSource) Rows(ctx context.Context) ([]Row, []Row, string, error) {
	const op = "service.catalog_sync.SheetsCSVSource.Rows"

	var machines, prices []Row

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		machines, err = s.fetch(gCtx, s.machinesSheet)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.fetch(gCtx, s.pricesSheet)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return machines, prices, "sheets_csv", nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (s *SheetsCSVSource) fetch(ctx context.Context, sheet string) ([]Row, error) {
	var body []byte

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = s.maxElapsed
	retryPolicy.MaxInterval = 10 * time.Second

	err := backoff.RetryNotify(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.SheetURL(sheet), nil)
			if err != nil {
				return backoff.Permanent(err)
			}
			req.Header.Set("User-Agent", "cotizador-catalog-sync/1.0")

			resp, err := s.client.Do(req)
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				serr := &statusError{code: resp.StatusCode}
				// 4xx кроме 429 повторять бессмысленно
				if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
					return backoff.Permanent(serr)
				}
				return serr
			}

			body, err = io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("read: %w", err)
			}
			return nil
		},
		backoff.WithContext(retryPolicy, ctx),
		func(err error, d time.Duration) {
			s.log.Warn("sheet fetch failed, retrying",
				slog.String("sheet", sheet),
				slog.String("error", err.Error()),
				slog.Duration("next_attempt_in", d))
		},
	)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}

	return parseCSV(body)
}

func parseCSV(body []byte) ([]Row, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	grid, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsFromGrid(grid), nil
}
