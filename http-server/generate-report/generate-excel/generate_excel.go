package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	generate "cotizador/internal/service/generate-excel"
	"cotizador/internal/storage"
)

type GenerateExcelHandler interface {
	GenerateExcel(ctx context.Context, filter generate.HistoryFilter) ([]byte, error)
}

// GenerateReportExcel выгружает историю вида в xlsx; from/to в формате 2006-01-02.
func GenerateReportExcel(log *slog.Logger, gen GenerateExcelHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.report.GenerateReportExcel"

		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = storage.KindPackaging
		}
		if !storage.ValidKind(kind) {
			http.Error(w, "unknown kind", http.StatusBadRequest)
			return
		}

		filter := generate.HistoryFilter{
			Kind:   kind,
			Client: r.URL.Query().Get("cliente"),
		}

		if fromStr := r.URL.Query().Get("from"); fromStr != "" {
			fDate, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				http.Error(w, "invalid from date", http.StatusBadRequest)
				return
			}
			filter.From = fDate
		}

		if toStr := r.URL.Query().Get("to"); toStr != "" {
			tDate, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				http.Error(w, "invalid to date", http.StatusBadRequest)
				return
			}
			// включаем весь день
			filter.To = tDate.Add(24*time.Hour - time.Nanosecond)
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, filter)
		if err != nil {
			log.Error("failed to generate excel", "op", op, "err", err)
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}

		fileName := fmt.Sprintf("Historial_%s_%s.xlsx", kind, time.Now().Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		w.Write(excelBytes)
	}
}
