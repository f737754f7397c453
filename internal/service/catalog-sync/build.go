package catalog_sync

import (
	"sort"
	"strings"

	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
)

// Row это строка листа, заголовок колонки -> значение ячейки.
type Row map[string]string

var (
	modelAliases    = []string{"modelo", "model", "maquina", "machine", "maquina_id", "id"}
	templateAliases = []string{"plantilla", "template", "docx", "archivo"}
	baseAliases     = []string{"precio_base", "base_price", "base", "precio", "price", "costo"}
	stepAliases     = []string{"paso", "paso_id", "step", "step_id", "pregunta", "question"}
	labelAliases    = []string{"opcion", "opcion_label", "label", "choice", "nombre_opcion", "opcion_valor", "valor", "value"}
	priceAliases    = []string{"precio", "price", "extra", "costo", "cost", "precio_extra_us"}
	typeAliases     = []string{"tipo", "type", "input_type", "control", "tipo_control"}
)

var baseStepNames = map[string]bool{
	"": true, "base": true, "baseprice": true, "precio_base": true,
	"preciobase": true, "base_price": true, "pricebase": true,
}

var checkboxTypes = map[string]bool{"checkbox": true, "bool": true, "boolean": true, "check": true}

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}

// value ищет колонку сначала по точному имени, потом по вхождению.
func (r Row) value(aliases []string) (string, bool) {
	if len(r) == 0 {
		return "", false
	}

	keys := make(map[string]string, len(r))
	for k := range r {
		keys[normalizeKey(k)] = k
	}
	for _, a := range aliases {
		if k, ok := keys[normalizeKey(a)]; ok {
			return r[k], true
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	for _, a := range aliases {
		na := normalizeKey(a)
		if na == "" {
			continue
		}
		for _, k := range sorted {
			if strings.Contains(k, na) {
				return r[keys[k]], true
			}
		}
	}
	return "", false
}

// parsePrice оставляет только цифры, точку и минус: "US$ 1,250.50" -> 1250.50.
func parsePrice(s string) decimal.Decimal {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, strings.TrimSpace(s))

	switch cleaned {
	case "", ".", "-", "-.":
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isBaseStep(step string) bool {
	s := strings.ToLower(strings.TrimSpace(step))
	return baseStepNames[s] || baseStepNames[normalizeKey(s)]
}

func templateName(s string) string {
	s = strings.TrimSpace(s)
	if s != "" && !strings.HasSuffix(strings.ToLower(s), ".docx") {
		s += ".docx"
	}
	return s
}

type optionBucket struct {
	name     string
	checkbox bool
	choices  []storage.Choice
}

type modelMeta struct {
	template string
	base     decimal.Decimal
	buckets  []*optionBucket
	byName   map[string]*optionBucket
}

// BuildCatalog собирает каталог из листов машин и цен.
// Ключ каталога это имя файла шаблона, опции идут в порядке первого появления.
func BuildCatalog(machines, prices []Row) storage.Catalog {
	var order []string
	meta := map[string]*modelMeta{}

	ensure := func(model string) *modelMeta {
		if m, ok := meta[model]; ok {
			return m
		}
		m := &modelMeta{template: templateName(model), byName: map[string]*optionBucket{}}
		meta[model] = m
		order = append(order, model)
		return m
	}

	for _, row := range machines {
		model, _ := row.value(modelAliases)
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		m := ensure(model)
		if tpl, ok := row.value(templateAliases); ok && strings.TrimSpace(tpl) != "" {
			m.template = templateName(tpl)
		}
		if base, ok := row.value(baseAliases); ok {
			m.base = parsePrice(base)
		}
	}

	for _, row := range prices {
		model, _ := row.value(modelAliases)
		model = strings.TrimSpace(model)
		if model == "" {
			continue
		}
		label, ok := row.value(labelAliases)
		label = strings.TrimSpace(label)
		if !ok || label == "" {
			continue
		}

		step, _ := row.value(stepAliases)
		step = strings.TrimSpace(step)
		priceText, _ := row.value(priceAliases)
		price := parsePrice(priceText)
		kind, _ := row.value(typeAliases)
		isCheckbox := checkboxTypes[normalizeKey(kind)]

		m := ensure(model)
		if isBaseStep(step) {
			if price.IsPositive() {
				m.base = price
			}
			continue
		}

		name := step
		if name == "" {
			name = "Option"
		}
		b, ok := m.byName[name]
		if !ok {
			b = &optionBucket{name: name}
			m.byName[name] = b
			m.buckets = append(m.buckets, b)
		}
		if isCheckbox {
			b.checkbox = true
		}
		b.choices = append(b.choices, storage.Choice{Label: label, Price: price})
	}

	catalog := make(storage.Catalog, len(meta))
	for _, model := range order {
		m := meta[model]
		tpl := storage.MachineTemplate{Name: m.template, BasePrice: m.base}
		for _, b := range m.buckets {
			var spec storage.OptionSpec
			if b.checkbox {
				// цена чекбокса это максимум по его строкам
				maxPrice := decimal.Zero
				for _, c := range b.choices {
					if c.Price.GreaterThan(maxPrice) {
						maxPrice = c.Price
					}
				}
				spec = storage.Checkbox(maxPrice)
			} else {
				spec = storage.Select(b.choices...)
			}
			tpl.Options = append(tpl.Options, storage.NamedOption{Name: b.name, Spec: spec})
		}
		catalog[m.template] = tpl
	}

	return catalog
}

// rowsFromGrid превращает таблицу с заголовком в первой строке в строки листа.
func rowsFromGrid(grid [][]string) []Row {
	if len(grid) == 0 {
		return nil
	}

	headers := make([]string, len(grid[0]))
	for i, h := range grid[0] {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	rows := make([]Row, 0, len(grid)-1)
	for _, line := range grid[1:] {
		row := make(Row, len(headers))
		empty := true
		for i, h := range headers {
			if h == "" {
				continue
			}
			v := ""
			if i < len(line) {
				v = strings.TrimSpace(line[i])
			}
			if v != "" {
				empty = false
			}
			row[h] = v
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
