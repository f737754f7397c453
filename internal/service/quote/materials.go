package quote

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"cotizador/internal/service/templates"
	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
)

const DefaultIVAPercent = 16

type MaterialItem struct {
	Description string `json:"description"`
	Quantity    any    `json:"quantity"`
	UnitPrice   any    `json:"unit_price"`
}

type MaterialsRequest struct {
	Template     string         `json:"plantilla"`
	Client       string         `json:"cliente"`
	Advisor      string         `json:"asesor"`
	Date         string         `json:"fecha"`
	ValidityDays *int           `json:"validez_dias"`
	Currency     string         `json:"moneda"`
	Notes        string         `json:"notas"`
	FreightText  string         `json:"flete_texto"`
	IVAPercent   *int           `json:"iva_pct"`
	Items        []MaterialItem `json:"items"`

	WordPath string `json:"-"`
	PDFPath  string `json:"-"`
	SkipPDF  bool   `json:"-"`
}

type MaterialLine struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

type MaterialsTotals struct {
	Lines      []MaterialLine  `json:"lines"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	IVAPercent int             `json:"iva_pct"`
	IVA        decimal.Decimal `json:"iva"`
	Total      decimal.Decimal `json:"total"`
}

// ComputeMaterials: subtotal = Σ q*p, iva = subtotal*pct/100, total = subtotal+iva.
// Строки без описания и с нулевым количеством пропускаются.
func ComputeMaterials(items []MaterialItem, ivaPct int) MaterialsTotals {
	if ivaPct < 0 {
		ivaPct = 0
	}

	t := MaterialsTotals{IVAPercent: ivaPct}
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		qty := storage.ParseDecimal(it.Quantity)
		if desc == "" && qty.IsZero() {
			continue
		}
		price := storage.ParseDecimal(it.UnitPrice)
		line := MaterialLine{
			Description: desc,
			Quantity:    qty,
			UnitPrice:   price,
			Amount:      qty.Mul(price).Round(2),
		}
		t.Lines = append(t.Lines, line)
		t.Subtotal = t.Subtotal.Add(line.Amount)
	}

	t.IVA = t.Subtotal.Mul(decimal.NewFromInt(int64(ivaPct))).Div(hundred).Round(2)
	t.Total = t.Subtotal.Add(t.IVA).Round(2)
	return t
}

// MaterialsPlaceholders: плейсхолдеры шаблона материалов.
func MaterialsPlaceholders(req MaterialsRequest, t MaterialsTotals, validity string) map[string]string {
	cur := strings.ToUpper(orDefault(req.Currency, "MXN"))

	data := placeholders{}
	data.put(req.Client, "cliente", "nombre del cliente", "nombre_del_cliente")
	data.put(req.Date, "fecha")
	data.put(req.Advisor, "asesor")
	data.put(validity, "validez")
	data.put(req.Notes, "notas")
	data.put(req.FreightText, "flete_texto")
	data.put(cur, "moneda")
	data.put(FormatMoney(t.Subtotal, cur), "subtotal")
	data.put(FormatMoney(t.IVA, cur), "iva")
	data.put(fmt.Sprintf("%d%%", t.IVAPercent), "iva_pct")
	data.put(FormatMoney(t.Total, cur), "total", "precio_total", "gran_total")

	rows := make([]string, 0, len(t.Lines))
	for i, l := range t.Lines {
		n := i + 1
		qty := l.Quantity.String()
		data.put(qty, fmt.Sprintf("qty%d", n), fmt.Sprintf("item%d_cantidad", n))
		data.put(l.Description, fmt.Sprintf("product%d", n), fmt.Sprintf("item%d_descripcion", n))
		data.put(FormatMoney(l.UnitPrice, cur), fmt.Sprintf("price%d", n), fmt.Sprintf("item%d_precio", n))
		data.put(FormatMoney(l.Amount, cur), fmt.Sprintf("amount%d", n), fmt.Sprintf("item%d_importe", n))
		rows = append(rows, fmt.Sprintf("%s x %s @ %s = %s", qty, l.Description, FormatMoney(l.UnitPrice, cur), FormatMoney(l.Amount, cur)))
	}
	data.put(strings.Join(rows, "\n"), "items_tabla")

	return data
}

// GenerateMaterials заполняет шаблон материалов и пишет историю вида materials.
func (s *Service) GenerateMaterials(ctx context.Context, req MaterialsRequest) (*Result, error) {
	const op = "service.quote.GenerateMaterials"

	name := orDefault(req.Template, templates.MaterialsTemplate)
	if !strings.EqualFold(filepath.Ext(name), ".docx") {
		name += ".docx"
	}
	path, err := s.templates.ResolveFile(name)
	if err != nil {
		s.metrics.QuoteFailed("prepare")
		return nil, err
	}

	mapping, err := s.mappings.GetMapping(ctx, storage.KindMaterials, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("%s: mapping: %w", op, err)
	}

	ivaPct := DefaultIVAPercent
	if req.IVAPercent != nil {
		ivaPct = *req.IVAPercent
	}
	totals := ComputeMaterials(req.Items, ivaPct)

	validity := s.defaults.ValidityDays
	if req.ValidityDays != nil {
		validity = *req.ValidityDays
	}
	if validity <= 0 {
		validity = 30
	}
	if strings.TrimSpace(req.Date) == "" {
		req.Date = s.now().Format("02/01/2006")
	}
	req.Advisor = orDefault(req.Advisor, s.defaults.Advisor)
	req.Currency = strings.ToUpper(orDefault(req.Currency, "MXN"))

	data := MaterialsPlaceholders(req, totals, fmt.Sprintf("%d días", validity))
	ctxValues := make(map[string]string, len(data)+2)
	for k, v := range data {
		ctxValues[k] = v
	}
	ctxValues["subtotal_numeric"] = totals.Subtotal.StringFixed(2)
	ctxValues["total_numeric"] = totals.Total.StringFixed(2)
	ApplyMapping(data, mapping, ctxValues)

	res := &Result{
		Kind:         storage.KindMaterials,
		Model:        strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Client:       strings.TrimSpace(req.Client),
		Total:        totals.Total,
		TotalText:    FormatMoney(totals.Total, req.Currency),
		Currency:     req.Currency,
		Placeholders: data,
	}

	docxPath := req.WordPath
	if docxPath == "" {
		docxPath = filepath.Join(s.defaults.OutputDir, fmt.Sprintf("Materiales_%s_%s.docx",
			SanitizeFilename(res.Client), s.now().Format("20060102_1504")))
	}
	if err := s.filler.Fill(path, docxPath, data); err != nil {
		s.metrics.QuoteFailed("fill")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.DocxPath = docxPath

	s.convert(ctx, Request{PDFPath: req.PDFPath, SkipPDF: req.SkipPDF}, res)
	s.record(ctx, res)

	total, _ := res.Total.Float64()
	s.metrics.QuoteGenerated(storage.KindMaterials, total)

	s.log.Info("materials quote generated",
		slog.String("op", op),
		slog.String("client", res.Client),
		slog.Int("items", len(totals.Lines)),
		slog.String("total", res.TotalText))

	return res, nil
}
