package catalog_sync

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"cotizador/internal/config"
	"cotizador/internal/storage"
)

// CatalogStore: хранилище, в которое уходит синхронизированный каталог.
type CatalogStore interface {
	Replace(ctx context.Context, catalog storage.Catalog) error
	Load() storage.Catalog
}

type Recorder interface {
	CatalogSynced(ok bool)
}

type Status struct {
	OK        bool       `json:"ok"`
	Source    string     `json:"source"`
	Mode      string     `json:"mode,omitempty"`
	UpdatedAt *time.Time `json:"updated_at"`
	Items     int        `json:"items"`
	Error     string     `json:"error,omitempty"`
}

var ErrEmptyCatalog = errors.New("catalog source returned an empty catalog")

// Manager синхронизирует каталог не чаще раза в TTL.
// При ошибке остаётся локальный файл каталога.
type Manager struct {
	log     *slog.Logger
	source  Source
	store   CatalogStore
	metrics Recorder
	ttl     time.Duration
	now     func() time.Time

	mu       sync.Mutex
	lastSync time.Time
	status   Status
}

func NewManager(log *slog.Logger, source Source, store CatalogStore, metrics Recorder, ttl time.Duration) *Manager {
	if ttl < 0 {
		ttl = 0
	}
	return &Manager{
		log:     log,
		source:  source,
		store:   store,
		metrics: metrics,
		ttl:     ttl,
		now:     time.Now,
		status:  Status{Source: "none", Error: "Never synced"},
	}
}

// NewSource выбирает источник по конфигурации: xlsx важнее Google Sheets.
func NewSource(log *slog.Logger, cfg config.CatalogSync) (Source, error) {
	switch {
	case cfg.XLSXPath != "":
		return XLSXSource{Path: cfg.XLSXPath, MachinesSheet: cfg.MachinesSheet, PricesSheet: cfg.PricesSheet}, nil
	case cfg.SheetID != "":
		return NewSheetsCSVSource(log, cfg.SheetID, cfg.MachinesSheet, cfg.PricesSheet, cfg.Timeout), nil
	default:
		return nil, ErrNoSource
	}
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// Sync загружает каталог из источника; без force в пределах TTL отдаёт прошлый статус.
func (m *Manager) Sync(ctx context.Context, force bool) Status {
	const op = "service.catalog_sync.Sync"

	m.mu.Lock()
	defer m.mu.Unlock()

	if !force && !m.lastSync.IsZero() && m.now().Sub(m.lastSync) < m.ttl {
		return m.status
	}

	updated := m.now().UTC()
	m.lastSync = m.now()

	catalog, mode, err := m.fetch(ctx)
	if err == nil {
		err = m.store.Replace(ctx, catalog)
	}

	if err != nil {
		fallback := m.store.Load()
		m.log.Warn("catalog sync failed, using local catalog",
			slog.String("op", op),
			slog.String("error", err.Error()),
			slog.Int("items", len(fallback)))

		m.status = Status{Source: "local", Mode: mode, UpdatedAt: &updated, Items: len(fallback), Error: err.Error()}
		m.record(false)
		return m.status
	}

	m.log.Info("catalog synced", slog.String("op", op), slog.String("mode", mode), slog.Int("items", len(catalog)))
	m.status = Status{OK: true, Source: "sheets", Mode: mode, UpdatedAt: &updated, Items: len(catalog)}
	m.record(true)
	return m.status
}

func (m *Manager) fetch(ctx context.Context) (storage.Catalog, string, error) {
	if m.source == nil {
		return nil, "", ErrNoSource
	}

	machines, prices, mode, err := m.source.Rows(ctx)
	if err != nil {
		return nil, mode, err
	}

	catalog := BuildCatalog(machines, prices)
	if len(catalog) == 0 {
		return nil, mode, ErrEmptyCatalog
	}
	return catalog, mode, nil
}

func (m *Manager) record(ok bool) {
	if m.metrics != nil {
		m.metrics.CatalogSynced(ok)
	}
}

// Run синхронизирует каталог сразу и затем раз в TTL, пока жив ctx.
func (m *Manager) Run(ctx context.Context) {
	m.Sync(ctx, true)

	if m.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(m.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sync(ctx, true)
		}
	}
}
