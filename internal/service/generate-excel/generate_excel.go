package generate_excel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cotizador/internal/storage"

	"github.com/xuri/excelize/v2"
)

type HistoryProvider interface {
	List(ctx context.Context, kind string) ([]storage.HistoryRecord, error)
}

// HistoryFilter: границы отчёта; нулевые даты не ограничивают выборку.
type HistoryFilter struct {
	Kind   string
	From   time.Time
	To     time.Time
	Client string
}

func (f HistoryFilter) match(r storage.HistoryRecord) bool {
	if !f.From.IsZero() && r.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Date.After(f.To) {
		return false
	}
	if f.Client != "" && !strings.Contains(strings.ToLower(r.Client), strings.ToLower(f.Client)) {
		return false
	}
	return true
}

type GenerateExcelService struct {
	storage HistoryProvider
}

func NewGenerateService(storage HistoryProvider) *GenerateExcelService {
	return &GenerateExcelService{storage: storage}
}

var headers = []string{"Fecha", "Cliente", "Plantilla", "Monto", "Moneda", "Word", "PDF"}

func (g *GenerateExcelService) GenerateExcel(ctx context.Context, filter HistoryFilter) ([]byte, error) {
	const op = "service.generate_excel.GenerateExcel"

	// 1. История выбранного вида
	rows, err := g.storage.List(ctx, filter.Kind)
	if err != nil {
		return nil, fmt.Errorf("%s: fetch history: %w", op, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(filter.Kind)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("%s: sheet: %w", op, err)
	}

	// Жирная шапка на сером фоне
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	// 2. Шапка
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), headerStyle)

	// 3. Данные
	rowNum := 2
	for _, r := range rows {
		if !filter.match(r) {
			continue
		}

		amount, _ := r.TotalNumeric.Float64()
		f.SetCellValue(sheet, cellName(1, rowNum), r.Date.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellName(2, rowNum), r.Client)
		f.SetCellValue(sheet, cellName(3, rowNum), r.Template)
		f.SetCellValue(sheet, cellName(4, rowNum), amount)
		f.SetCellValue(sheet, cellName(5, rowNum), r.Currency)
		f.SetCellValue(sheet, cellName(6, rowNum), r.Docx)
		f.SetCellValue(sheet, cellName(7, rowNum), r.PDF)
		rowNum++
	}
	if rowNum > 2 {
		f.SetCellStyle(sheet, cellName(4, 2), cellName(4, rowNum-1), moneyStyle)
	}

	// 4. Закрепляем первую строку
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})

	f.SetColWidth(sheet, "A", "E", 18)
	f.SetColWidth(sheet, "F", "G", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}

	return buf.Bytes(), nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func sheetName(kind string) string {
	switch kind {
	case storage.KindMaterials:
		return "Materials"
	default:
		return "Packaging"
	}
}
