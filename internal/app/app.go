package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cotizador/internal/config"
	"cotizador/internal/metrics"
	authsvc "cotizador/internal/service/auth"
	catalog_sync "cotizador/internal/service/catalog-sync"
	"cotizador/internal/service/docx"
	generate_excel "cotizador/internal/service/generate-excel"
	"cotizador/internal/service/pdf"
	"cotizador/internal/service/quote"
	"cotizador/internal/service/templates"
	"cotizador/internal/storage/jsonfile"
	"cotizador/internal/storage/mysql"
)

// App: собранные зависимости, общие для HTTP-сервера и CLI.
type App struct {
	Log    *slog.Logger
	Config *config.Config

	Catalog   *jsonfile.CatalogStore
	History   *jsonfile.HistoryStore
	Mappings  *jsonfile.MappingStore
	Templates *templates.Resolver
	Filler    *docx.Filler
	Metrics   *metrics.Metrics

	Quotes *quote.Service
	Report *generate_excel.GenerateExcelService
	Sync   *catalog_sync.Manager
}

func New(cfg *config.Config, log *slog.Logger) *App {
	a := &App{
		Log:       log,
		Config:    cfg,
		Catalog:   jsonfile.NewCatalogStore(log, cfg.Paths.Catalog, cfg.Paths.Backups),
		History:   jsonfile.NewHistoryStore(cfg.Paths.HistoryDir, cfg.Paths.HistoryDocs),
		Mappings:  jsonfile.NewMappingStore(cfg.Paths.Mappings),
		Templates: templates.NewResolver(cfg.Paths.Templates),
		Filler:    docx.NewFiller(),
		Metrics:   metrics.New(),
	}

	a.Catalog.Load()

	// nil-интерфейс, а не nil-указатель: сервис проверяет pdf == nil
	var converter quote.PDFConverter
	if cfg.PDF.Enabled {
		converter = pdf.NewConverter(cfg.PDF.Binary, cfg.PDF.Timeout)
	}

	a.Quotes = quote.NewService(log, a.Catalog, a.Mappings, a.Templates, a.Filler, converter, a.History, a.Metrics, quote.Defaults{
		Currency:     cfg.Quote.Currency,
		ValidityDays: cfg.Quote.ValidityDays,
		Advisor:      cfg.Quote.Advisor,
		Availability: cfg.Quote.Availability,
		OutputDir:    cfg.Paths.Output,
	})
	a.Report = generate_excel.NewGenerateService(a.History)

	source, err := catalog_sync.NewSource(log, cfg.Sync)
	if err != nil && !errors.Is(err, catalog_sync.ErrNoSource) {
		log.Warn("catalog sync source not available", slog.String("error", err.Error()))
	}
	a.Sync = catalog_sync.NewManager(log, source, a.Catalog, a.Metrics, cfg.Sync.TTL)

	return a
}

// OpenDB подключает MySQL, применяет миграции и создаёт администратора по умолчанию.
func OpenDB(ctx context.Context, cfg *config.Config, log *slog.Logger) (*mysql.Storage, *authsvc.Service, error) {
	const op = "app.OpenDB"

	db, err := mysql.New(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	if cfg.DB.Migrations {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	auth := authsvc.NewService(log, db, cfg.Auth)
	if err := auth.SeedAdmin(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return db, auth, nil
}
