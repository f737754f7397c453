package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cotizador/internal/app"
	"cotizador/internal/backend"
	"cotizador/internal/config"
	"cotizador/internal/lib/logger"
	"cotizador/internal/service/quote"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	req, err := parseArgs(args, stderr)
	if err != nil {
		fmt.Fprintln(stdout, quote.StatusLine(nil, err))
		return 1
	}

	cfg := config.MustConfig()

	// stdout занят строкой статуса, логи уходят в stderr
	log := logger.Setup(cfg.Env, stderr, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, log)

	res, err := a.Quotes.Generate(ctx, req)
	fmt.Fprintln(stdout, quote.StatusLine(res, err))
	if err != nil {
		return 1
	}

	push(ctx, log, cfg.Backend, res)

	return 0
}

// push отправляет предложение в общий бэкенд. Ошибки не влияют на код выхода.
func push(ctx context.Context, log *slog.Logger, cfg config.Backend, res *quote.Result) {
	const op = "cli.push"

	client := backend.New(log, cfg.URL, cfg.Timeout)
	if !client.Enabled() {
		return
	}

	log = log.With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	host, _ := os.Hostname()
	if _, err := client.Login(ctx, cfg.Username, cfg.Password, host, ""); err != nil {
		log.Warn("backend login failed", slog.String("error", err.Error()))
		return
	}

	total, _ := res.Total.Float64()
	id, err := client.CreateQuote(ctx, res.Kind, map[string]any{
		"id":            res.ID,
		"cliente":       res.Client,
		"plantilla":     res.Model,
		"moneda":        res.Currency,
		"total":         res.TotalText,
		"total_numeric": total,
		"ruta_word":     res.DocxPath,
		"ruta_pdf":      res.PDFPath,
	})
	if err != nil {
		log.Warn("backend push failed", slog.String("error", err.Error()))
		return
	}

	log.Info("quote pushed to backend", slog.String("id", id))
}
