package quote

import (
	"fmt"
	"regexp"
	"strings"

	"cotizador/internal/i18n"
	"cotizador/internal/lib/textnorm"
	"cotizador/internal/storage"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Concept это строка коммерческого договора, процент и условие оплаты.
type Concept struct {
	Percent   string `json:"porcentaje"`
	Condition string `json:"condicion"`
}

var DefaultConcepts = []Concept{
	{Percent: "35", Condition: "Con orden de compra"},
	{Percent: "55", Condition: "Contra aviso de entrega"},
	{Percent: "10", Condition: "Al instalar"},
}

// QuoteContext: всё, что нужно для заполнения шаблона.
// Создаётся на одну генерацию и после неё не меняется.
type QuoteContext struct {
	Model        string          `json:"modelo"`
	Client       string          `json:"cliente"`
	Advisor      string          `json:"asesor"`
	Date         string          `json:"fecha"`
	Validity     string          `json:"validez"`
	Currency     string          `json:"moneda"`
	Availability string          `json:"disponibilidad"`
	Notes        string          `json:"notas"`
	FreightText  string          `json:"flete_texto"`
	Freight      decimal.Decimal `json:"flete_monto"`
	Contract     []Concept       `json:"contrato"`
	Resolution   Resolution      `json:"resolucion"`
}

// ContractFromSelection берёт договор по умолчанию и подменяет
// contrato{i}_porcentaje / contrato{i}_condicion из выбора пользователя.
func ContractFromSelection(sel Selection) []Concept {
	out := make([]Concept, len(DefaultConcepts))
	for i, def := range DefaultConcepts {
		c := def
		if v, ok := sel[fmt.Sprintf("contrato%d_porcentaje", i+1)]; ok && v != nil {
			c.Percent = strings.ReplaceAll(toString(v), "%", "")
		}
		if v, ok := sel[fmt.Sprintf("contrato%d_condicion", i+1)]; ok && v != nil {
			c.Condition = fmt.Sprint(v)
		}
		out[i] = c
	}
	return out
}

type placeholders map[string]string

func (p placeholders) put(value string, names ...string) {
	for _, n := range names {
		p[n] = value
	}
}

// BuildPlaceholders: плоская таблица плейсхолдер -> строка (ключи без скобок).
// Чистая функция от контекста и пользовательских привязок.
func BuildPlaceholders(qc QuoteContext, mapping storage.TemplateMapping) map[string]string {
	cur := strings.ToUpper(strings.TrimSpace(qc.Currency))
	if cur == "" {
		cur = "USD"
	}
	res := qc.Resolution
	summary := res.Summary()

	data := placeholders{}
	data.put(qc.Client, "cliente", "nombre del cliente", "nombre_del_cliente")
	data.put(qc.Date, "fecha")
	data.put(qc.Advisor, "asesor")
	data.put(orDefault(i18n.ToSpanish(qc.Availability), "En stock"), "disponibilidad")
	data.put(orDefault(qc.Validity, "30 días"), "validez")
	data.put(FormatMoney(res.Total, cur), "precio", "total", "precio_total")
	data.put(FormatMoney(res.BasePrice, cur), "precio_base")
	data.put(qc.Notes, "notas")
	data.put(cur, "moneda")
	data.put(qc.FreightText, "flete_texto")
	if !qc.Freight.IsZero() {
		data.put(FormatMoney(qc.Freight, cur), "flete_monto")
	}

	// опции без учёта аннотации цены тоже доступны по имени
	for _, o := range res.Options {
		data.put(o.Display, strings.ToLower(o.Name))
		if short := strings.ToLower(textnorm.StripPriceSuffix(o.Name)); short != "" {
			data.put(o.Display, short)
		}
	}

	sel := func(names ...string) string {
		for _, n := range names {
			if v := summary[strings.ToLower(n)]; v != "" {
				return v
			}
			if o, ok := res.Option(n); ok && o.Display != "" {
				return o.Display
			}
		}
		return ""
	}
	byKey := func(needles ...string) string {
		for _, o := range res.Options {
			name := textnorm.Fold(o.Name)
			for _, n := range needles {
				if strings.Contains(name, n) {
					return o.Display
				}
			}
		}
		return ""
	}

	data.put(sel("Voltage", "Voltaje"), "voltage", "voltaje")
	data.put(sel("Lid size"), "lid size", "lid_size", "altura_tapa", "tamano_tapa", "tamaño_tapa")
	data.put(sel("Pump Options"), "pump options", "pump_options", "opcion_bomba", "bomba", "bomba_de_vacio")

	operation := orDefault(sel("Operation", "Operacion"), "No")
	data.put(operation, "operation", "operacion")
	data.put(cutLabel(operation), "corte_mecanico")

	if v := byKey("gas flush", "inyeccion de gas", "descarga de gas"); v != "" {
		data.put(v, "gas_flush", "gas flush", "descarga_gas", "descarga_de_gas", "inyeccion_gas", "inyección_gas")
	}
	if v := byKey("positive air sealer"); v != "" {
		data.put(v, "positive_air", "positive air", "positive_air_sealer", "sellador_aire_positivo")
	}
	if v := byKey("bi-active sealing system", "bi active sealing system"); v != "" {
		data.put(v, "sellado_biactivo", "bi-active sealing system", "bi_active_sealing_system")
	}

	for i, c := range qc.Contract {
		n := i + 1
		data.put(FormatPercent(c.Percent), fmt.Sprintf("concepto%d", n), fmt.Sprintf("concept%d", n), fmt.Sprintf("concept_%d", n))
		cond := i18n.ToSpanish(strings.TrimSpace(c.Condition))
		data.put(cond, fmt.Sprintf("vencimiento%d", n), fmt.Sprintf("fecha_vencimiento%d", n), fmt.Sprintf("vence%d", n), fmt.Sprintf("due%d", n))
	}

	data.put(sel("Registro de fotografías"), "photo_registration", "registro_fotografias", "registro_de_fotografias")
	data.put(sel("Configuración de matriz", "Configuración de la matriz"), "die_configuration", "configuracion_matriz", "configuración_matriz", "configuracion_de_matriz")
	data.put(sel("La forma de la matriz (Geometría)", "Forma de la matriz"), "die_shape", "forma_matriz", "forma_de_matriz")
	data.put(sel("Proceso", "La forma de la matriz (Proceso)"), "tipo_empaque")
	data.put(byKey("indice", "index"), "index", "índice", "indice")
	data.put(byKey("descarga de bandeja", "tray unload", "bandeja facil"),
		"sistema_descarga_bandeja", "tray_unload_system", "tray unload system", "sistema_de_descarga_de_bandeja", "tray_unload")

	ApplyMapping(data, mapping, MappingContext(qc, data))

	return data
}

func cutLabel(operation string) string {
	v := textnorm.Fold(operation)
	for _, kw := range []string{"with mechanical cut", "con corte mecanico"} {
		if strings.Contains(v, kw) {
			return "Con corte mecánico"
		}
	}
	if v == "si" || v == "yes" || strings.HasPrefix(v, "si ") || strings.HasPrefix(v, "yes") {
		return "Con corte mecánico"
	}
	return "Sin corte mecánico"
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// MappingContext: значения, доступные пользовательским привязкам в режиме field.
func MappingContext(qc QuoteContext, data map[string]string) map[string]string {
	cur := strings.ToUpper(orDefault(qc.Currency, "USD"))
	ctx := make(map[string]string, len(data)+16)
	for k, v := range data {
		ctx[k] = v
	}

	ctx["cliente"] = qc.Client
	ctx["fecha"] = qc.Date
	ctx["asesor"] = qc.Advisor
	ctx["validez"] = orDefault(qc.Validity, "30 días")
	ctx["precio_base"] = FormatMoney(qc.Resolution.BasePrice, cur)
	ctx["precio_total"] = FormatMoney(qc.Resolution.Total, cur)
	ctx["base_numeric"] = qc.Resolution.BasePrice.StringFixed(2)
	ctx["total_numeric"] = qc.Resolution.Total.StringFixed(2)

	parts := make([]string, 0, len(qc.Contract))
	for _, c := range qc.Contract {
		if strings.TrimSpace(c.Percent) != "" {
			parts = append(parts, fmt.Sprintf("%s%% - %s", strings.TrimSuffix(c.Percent, "%"), c.Condition))
		}
	}
	ctx["conceptos_resumen"] = strings.Join(parts, ", ")
	ctx["options_resumen"] = ctx["conceptos_resumen"]

	if raw, err := json.Marshal(qc.Contract); err == nil {
		ctx["conceptos_json"] = string(raw)
	}

	for name, display := range qc.Resolution.Summary() {
		ctx["option:"+name] = display
	}

	return ctx
}

var braces = regexp.MustCompile(`^\{\{\s*(.*?)\s*\}\}$`)

// PlaceholderName убирает фигурные скобки: "{{ cliente }}" -> "cliente".
func PlaceholderName(s string) string {
	s = strings.TrimSpace(s)
	if m := braces.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return s
}

// ApplyMapping перекрывает плейсхолдеры пользовательскими привязками шаблона.
func ApplyMapping(data map[string]string, mapping storage.TemplateMapping, ctx map[string]string) {
	for placeholder, rule := range mapping {
		name := PlaceholderName(placeholder)
		if name == "" {
			continue
		}
		switch rule.Mode {
		case storage.MappingModeField:
			key := strings.TrimSpace(rule.Value)
			if strings.HasPrefix(key, "option:") {
				key = "option:" + strings.ToLower(strings.TrimSpace(strings.TrimPrefix(key, "option:")))
			}
			if v, ok := ctx[key]; ok {
				data[name] = v
			}
		case storage.MappingModeText:
			data[name] = rule.Value
		}
	}
}
