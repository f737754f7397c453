package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"cotizador/internal/service/quote"
)

var (
	ErrModelRequired = errors.New("se requiere --modelo")
	ErrBadOption     = errors.New("--opcion debe tener la forma nombre=valor")
	ErrBadBool       = errors.New("valor booleano no reconocido")
)

// Опции, которые передаются отдельными флагами, а не через --opcion.
var optionFlags = []string{"voltaje", "altura_tapa", "operacion", "opcion_bomba", "kit_muestras"}

// Флаги-переключатели и ключ опции, в который они попадают.
var boolFlags = []struct {
	flag string
	key  string
}{
	{"gas", "descarga_gas"},
	{"descarga_gas", "descarga_gas"},
	{"aire", "aire_positivo"},
	{"aire_positivo", "aire_positivo"},
	{"sistema_biactivo", "sistema_biactivo"},
}

type optionList []string

func (o *optionList) String() string { return strings.Join(*o, ",") }

func (o *optionList) Set(v string) error {
	*o = append(*o, v)
	return nil
}

func parseArgs(args []string, stderr io.Writer) (quote.Request, error) {
	fs := flag.NewFlagSet("cotizador-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		req      quote.Request
		validity int
		freight  float64
		corte    string
		options  optionList
	)

	fs.StringVar(&req.Model, "modelo", "", "модель или шаблон, например CM860")
	fs.StringVar(&req.Client, "cliente", "", "имя клиента")
	fs.StringVar(&req.Advisor, "asesor", "", "")
	fs.StringVar(&req.Date, "fecha", "", "")
	fs.StringVar(&req.Currency, "moneda", "", "")
	fs.StringVar(&req.Notes, "notas", "", "")
	fs.StringVar(&req.FreightText, "flete_texto", "", "")
	fs.Float64Var(&freight, "flete_monto", 0, "")
	fs.IntVar(&validity, "validez", 0, "срок действия в днях")
	fs.IntVar(&validity, "validez_dias", 0, "то же, что --validez")
	fs.StringVar(&req.WordPath, "salida_word", "", "путь к DOCX")
	fs.StringVar(&req.PDFPath, "salida_pdf", "", "путь к PDF")
	fs.StringVar(&corte, "corte", "", "механический срез: sí/no")
	fs.Var(&options, "opcion", "опция nombre=valor, можно повторять")

	named := make(map[string]*string, len(optionFlags))
	for _, name := range optionFlags {
		named[name] = fs.String(name, "", "")
	}

	switches := make(map[string]*string, len(boolFlags))
	for _, b := range boolFlags {
		switches[b.flag] = fs.String(b.flag, "", "sí/no")
	}

	contract := make(map[string]*string, 6)
	for i := 1; i <= 3; i++ {
		for _, suffix := range []string{"porcentaje", "condicion"} {
			key := fmt.Sprintf("contrato%d_%s", i, suffix)
			contract[key] = fs.String(key, "", "")
		}
	}

	if err := fs.Parse(args); err != nil {
		return quote.Request{}, err
	}

	req.Model = strings.TrimSpace(req.Model)
	if req.Model == "" {
		return quote.Request{}, ErrModelRequired
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "validez", "validez_dias":
			req.ValidityDays = &validity
		case "flete_monto":
			req.Freight = freight
		}
	})

	req.Selections = quote.Selection{}

	for _, name := range optionFlags {
		if v := strings.TrimSpace(*named[name]); v != "" {
			req.Selections[name] = v
		}
	}

	for _, b := range boolFlags {
		raw := *switches[b.flag]
		if raw == "" {
			continue
		}
		v, err := parseSwitch(raw)
		if err != nil {
			return quote.Request{}, fmt.Errorf("--%s: %w", b.flag, err)
		}
		req.Selections[b.key] = v
	}

	if corte != "" {
		v, err := parseSwitch(corte)
		if err != nil {
			return quote.Request{}, fmt.Errorf("--corte: %w", err)
		}
		req.Selections[quote.MechanicalCutKey] = v
	}

	for key, v := range contract {
		if s := strings.TrimSpace(*v); s != "" {
			req.Selections[key] = s
		}
	}

	for _, o := range options {
		name, value, ok := strings.Cut(o, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return quote.Request{}, fmt.Errorf("%w: %q", ErrBadOption, o)
		}
		req.Selections[name] = strings.TrimSpace(value)
	}

	return req, nil
}

// parseSwitch разбирает sí/no строго, нераспознанное значение это ошибка.
func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "sí", "si", "yes", "true", "1", "on":
		return true, nil
	case "no", "false", "0", "off":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s", ErrBadBool, raw)
}
