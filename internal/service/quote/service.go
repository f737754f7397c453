package quote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"cotizador/internal/service/pdf"
	"cotizador/internal/service/templates"
	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

type CatalogProvider interface {
	GetTemplate(ctx context.Context, name string) (storage.MachineTemplate, error)
}

type MappingProvider interface {
	GetMapping(ctx context.Context, kind, template string) (storage.TemplateMapping, error)
}

type TemplateResolver interface {
	Resolve(model string) (string, error)
	ResolveFile(name string) (string, error)
}

type DocumentFiller interface {
	Fill(src, dst string, values map[string]string) error
}

type PDFConverter interface {
	Convert(ctx context.Context, docxPath, pdfPath string) (string, error)
}

type HistoryAppender interface {
	Append(ctx context.Context, rec storage.HistoryRecord) (storage.HistoryRecord, error)
}

type Recorder interface {
	QuoteGenerated(kind string, amount float64)
	QuoteFailed(stage string)
}

// Defaults: значения шапки, когда запрос их не задаёт.
type Defaults struct {
	Currency     string
	ValidityDays int
	Advisor      string
	Availability string
	OutputDir    string
}

type Request struct {
	Model        string    `json:"modelo"`
	Client       string    `json:"cliente"`
	Advisor      string    `json:"asesor"`
	Date         string    `json:"fecha"`
	ValidityDays *int      `json:"validez_dias"`
	Currency     string    `json:"moneda"`
	Availability string    `json:"disponibilidad"`
	Notes        string    `json:"notas"`
	FreightText  string    `json:"flete_texto"`
	Freight      any       `json:"flete_monto"`
	Selections   Selection `json:"selections"`

	// Overrides: ключи верхнего уровня тела запроса, уступают Selections.
	Overrides Selection `json:"-"`

	WordPath string `json:"-"`
	PDFPath  string `json:"-"`
	SkipPDF  bool   `json:"-"`
}

type Result struct {
	ID           string            `json:"id"`
	Kind         string            `json:"kind"`
	Model        string            `json:"modelo"`
	Client       string            `json:"cliente"`
	Total        decimal.Decimal   `json:"total"`
	TotalText    string            `json:"total_texto"`
	Currency     string            `json:"moneda"`
	DocxPath     string            `json:"ruta_word"`
	PDFPath      string            `json:"ruta_pdf"`
	Context      QuoteContext      `json:"contexto"`
	Placeholders map[string]string `json:"placeholders"`
	Warnings     []string          `json:"warnings,omitempty"`
}

type Service struct {
	log       *slog.Logger
	catalog   CatalogProvider
	mappings  MappingProvider
	templates TemplateResolver
	filler    DocumentFiller
	pdf       PDFConverter
	history   HistoryAppender
	metrics   Recorder
	defaults  Defaults
	now       func() time.Time
}

func NewService(
	log *slog.Logger,
	catalog CatalogProvider,
	mappings MappingProvider,
	templates TemplateResolver,
	filler DocumentFiller,
	pdf PDFConverter,
	history HistoryAppender,
	metrics Recorder,
	defaults Defaults,
) *Service {
	return &Service{
		log:       log,
		catalog:   catalog,
		mappings:  mappings,
		templates: templates,
		filler:    filler,
		pdf:       pdf,
		history:   history,
		metrics:   metrics,
		defaults:  defaults,
		now:       time.Now,
	}
}

// prepared: всё вычисленное до записи документа.
type prepared struct {
	model        string
	templatePath string
	context      QuoteContext
	placeholders map[string]string
	warnings     []string
}

func (s *Service) prepare(ctx context.Context, req Request) (*prepared, error) {
	const op = "service.quote.prepare"

	model := templates.NormalizeModel(req.Model)
	path, err := s.templates.Resolve(model)
	if err != nil {
		return nil, err
	}

	var (
		tpl      storage.MachineTemplate
		mapping  storage.TemplateMapping
		warnings []string
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tpl, err = s.lookupTemplate(gCtx, model)
		if errors.Is(err, storage.ErrTemplateNotFound) {
			// без записи в каталоге документ всё равно генерируется с нулевой базой
			warnings = append(warnings, fmt.Sprintf("modelo %s sin precios en catálogo", model))
			tpl = storage.MachineTemplate{Name: model}
			return nil
		}
		if err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		mapping, err = s.mappings.GetMapping(gCtx, storage.KindPackaging, filepath.Base(path))
		if err != nil {
			return fmt.Errorf("mapping: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sel := req.Selections.WithOverrides(req.Overrides, tpl)

	qc := s.buildContext(req, model, Resolve(tpl, sel), sel)

	return &prepared{
		model:        model,
		templatePath: path,
		context:      qc,
		placeholders: BuildPlaceholders(qc, mapping),
		warnings:     warnings,
	}, nil
}

func (s *Service) lookupTemplate(ctx context.Context, model string) (storage.MachineTemplate, error) {
	tpl, err := s.catalog.GetTemplate(ctx, model)
	if errors.Is(err, storage.ErrTemplateNotFound) {
		tpl, err = s.catalog.GetTemplate(ctx, model+".docx")
	}
	if err != nil {
		return storage.MachineTemplate{}, err
	}
	tpl.Name = model
	return tpl, nil
}

func (s *Service) buildContext(req Request, model string, res Resolution, sel Selection) QuoteContext {
	validity := s.defaults.ValidityDays
	if req.ValidityDays != nil {
		validity = *req.ValidityDays
	}
	if validity <= 0 {
		validity = 30
	}

	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.now().Format("02/01/2006")
	}

	return QuoteContext{
		Model:        model,
		Client:       strings.TrimSpace(req.Client),
		Advisor:      orDefault(req.Advisor, s.defaults.Advisor),
		Date:         date,
		Validity:     fmt.Sprintf("%d días", validity),
		Currency:     strings.ToUpper(orDefault(req.Currency, orDefault(s.defaults.Currency, "USD"))),
		Availability: orDefault(req.Availability, orDefault(s.defaults.Availability, "En stock")),
		Notes:        req.Notes,
		FreightText:  req.FreightText,
		Freight:      storage.ParseDecimal(req.Freight),
		Contract:     ContractFromSelection(sel),
		Resolution:   res,
	}
}

// Preview считает котировку без записи документов.
func (s *Service) Preview(ctx context.Context, req Request) (*Result, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.result(storage.KindPackaging, p.context, p.placeholders, p.warnings), nil
}

// Generate заполняет шаблон, по возможности конвертирует в PDF и пишет историю.
// Ошибки PDF и истории не прерывают генерацию, а попадают в Warnings.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	const op = "service.quote.Generate"

	p, err := s.prepare(ctx, req)
	if err != nil {
		s.metrics.QuoteFailed("prepare")
		return nil, err
	}

	res := s.result(storage.KindPackaging, p.context, p.placeholders, p.warnings)

	docxPath := req.WordPath
	if docxPath == "" {
		docxPath = filepath.Join(s.defaults.OutputDir, fmt.Sprintf("Cotizacion_%s_%s_%s.docx",
			SanitizeFilename(p.model), SanitizeFilename(res.Client), s.now().Format("20060102_1504")))
	}

	if err := s.filler.Fill(p.templatePath, docxPath, p.placeholders); err != nil {
		s.metrics.QuoteFailed("fill")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res.DocxPath = docxPath

	s.convert(ctx, req, res)
	s.record(ctx, res)

	total, _ := res.Total.Float64()
	s.metrics.QuoteGenerated(storage.KindPackaging, total)

	s.log.Info("quote generated",
		slog.String("op", op),
		slog.String("model", res.Model),
		slog.String("client", res.Client),
		slog.String("total", res.TotalText))

	return res, nil
}

func (s *Service) convert(ctx context.Context, req Request, res *Result) {
	if s.pdf == nil || req.SkipPDF {
		return
	}

	pdfPath := req.PDFPath
	if pdfPath == "" {
		pdfPath = strings.TrimSuffix(res.DocxPath, filepath.Ext(res.DocxPath)) + ".pdf"
	}

	out, err := s.pdf.Convert(ctx, res.DocxPath, pdfPath)
	if err != nil {
		if errors.Is(err, pdf.ErrEngineUnavailable) {
			res.Warnings = append(res.Warnings, "PDF no generado: motor de documentos no disponible")
		} else {
			res.Warnings = append(res.Warnings, "PDF no generado")
		}
		s.metrics.QuoteFailed("pdf")
		s.log.Warn("pdf conversion failed", slog.String("docx", res.DocxPath), slog.String("error", err.Error()))
		return
	}
	res.PDFPath = out
}

func (s *Service) record(ctx context.Context, res *Result) {
	if s.history == nil {
		return
	}

	rec, err := s.history.Append(ctx, storage.HistoryRecord{
		Kind:         res.Kind,
		Date:         s.now(),
		Client:       res.Client,
		Template:     res.Model,
		Amount:       res.TotalText,
		TotalNumeric: res.Total,
		Currency:     res.Currency,
		Docx:         res.DocxPath,
		PDF:          res.PDFPath,
	})
	if err != nil {
		res.Warnings = append(res.Warnings, "no se pudo registrar en el historial")
		s.metrics.QuoteFailed("history")
		s.log.Warn("history append failed", slog.String("error", err.Error()))
		return
	}
	res.ID = rec.ID
}

func (s *Service) result(kind string, qc QuoteContext, data map[string]string, warnings []string) *Result {
	return &Result{
		Kind:         kind,
		Model:        qc.Model,
		Client:       qc.Client,
		Total:        qc.Resolution.Total,
		TotalText:    FormatMoney(qc.Resolution.Total, qc.Currency),
		Currency:     qc.Currency,
		Context:      qc,
		Placeholders: data,
		Warnings:     warnings,
	}
}

// SanitizeFilename оставляет буквы, цифры, '-' и '_', не длиннее 80 символов.
func SanitizeFilename(text string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}

	safe := strings.Trim(b.String(), "_")
	if safe == "" {
		return "archivo"
	}
	if r := []rune(safe); len(r) > 80 {
		safe = string(r[:80])
	}
	return safe
}

// StatusLine: строка статуса для CLI.
func StatusLine(res *Result, err error) string {
	if err != nil {
		msg := strings.ReplaceAll(err.Error(), ";", ",")
		msg = strings.ReplaceAll(msg, "\n", " ")
		return "COTIZACION_ERROR;mensaje=" + msg
	}

	return fmt.Sprintf("COTIZACION_OK;MODELO=%s;CLIENTE=%s;WORD=%s;PDF=%s;TOTAL=%s;MONEDA=%s",
		res.Model, res.Client, res.DocxPath, res.PDFPath, res.Total.StringFixed(2), res.Currency)
}
