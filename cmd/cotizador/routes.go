package main

import (
	"log/slog"
	"net/http"

	getadmin "cotizador/http-server/admin/get"
	saveadmin "cotizador/http-server/admin/save"
	"cotizador/http-server/auth/login"
	getcatalog "cotizador/http-server/catalog/get"
	savecatalog "cotizador/http-server/catalog/save"
	synccatalog "cotizador/http-server/catalog/sync"
	generate_excel "cotizador/http-server/generate-report/generate-excel"
	gethistory "cotizador/http-server/history/get"
	removehistory "cotizador/http-server/history/remove"
	"cotizador/http-server/quote/generate"
	"cotizador/http-server/quote/preview"
	getquotes "cotizador/http-server/quotes/get"
	removequotes "cotizador/http-server/quotes/remove"
	savequotes "cotizador/http-server/quotes/save"
	"cotizador/internal/app"
	"cotizador/internal/config"
	"cotizador/internal/middleware/auth"
	authsvc "cotizador/internal/service/auth"
	"cotizador/internal/storage/mysql"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/cors"
)

func routes(cfg config.Config, log *slog.Logger, a *app.App, db *mysql.Storage, authService *authsvc.Service) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Cotizacion-Id", "X-Cotizacion-Total", "X-Cotizacion-Warnings"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok", "service": "cotizador"})
	})
	router.Handle("/metrics", a.Metrics.Handler())

	// Генерация документов
	router.Post("/generar-cotizacion", generate.Generate(log, a.Quotes))
	router.Post("/api/quotes/generate", generate.Generate(log, a.Quotes))
	router.Post("/api/quotes/preview", preview.Preview(log, a.Quotes))
	router.Post("/api/quotes/materials", generate.Materials(log, a.Quotes))

	// Каталог
	router.Get("/api/models", getcatalog.Models(log, a.Templates, a.Catalog))
	router.Get("/api/catalog", getcatalog.List(log, a.Catalog))
	router.Get("/api/catalog/sync/status", synccatalog.Status(log, a.Sync))
	router.Get("/api/catalog/{model}", getcatalog.Get(log, a.Catalog))

	// История
	router.Get("/api/history", gethistory.List(log, a.History))
	router.Get("/api/history/summary", gethistory.Summary(log, a.History))
	router.Delete("/api/history/{id}", removehistory.Delete(log, a.History))
	router.Get("/api/report/excel", generate_excel.GenerateReportExcel(log, a.Report))

	// Многопользовательский бэкенд работает только с MySQL
	if db != nil && authService != nil {
		router.Post("/api/auth/login", login.Login(log, authService))
		router.Get("/api/auth/token", login.Token(log, authService))

		router.Group(func(r chi.Router) {
			r.Use(auth.Bearer(authService))

			r.Get("/api/quotes", getquotes.List(log, db))
			r.Post("/api/quotes", savequotes.Create(log, db))
			r.Delete("/api/quotes/{id}", removequotes.Delete(log, db))
			r.Get("/api/metrics/summary", getquotes.Metrics(log, db))
		})
	}

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminRealm, cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Put("/catalog/{model}", savecatalog.Put(log, a.Catalog))
	adminRouter.Delete("/catalog/{model}", savecatalog.Delete(log, a.Catalog))
	adminRouter.Post("/catalog/sync", synccatalog.Trigger(log, a.Sync))
	adminRouter.Get("/mappings/{kind}/{template}", getadmin.Mapping(log, a.Mappings))
	adminRouter.Put("/mappings/{kind}/{template}", saveadmin.Mapping(log, a.Mappings))
	adminRouter.Get("/templates/{model}/placeholders", getadmin.Placeholders(log, a.Templates, a.Filler))

	router.Mount("/api/admin", adminRouter)

	return router
}
