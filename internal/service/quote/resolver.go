package quote

import (
	"fmt"
	"strings"

	"cotizador/internal/i18n"
	"cotizador/internal/lib/textnorm"
	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
)

// Selection хранит пользовательские значения опций, bool для чекбокса, строка для выбора.
// Ключи сравниваются без учёта регистра, пробелов и языка.
type Selection map[string]any

type ResolvedOption struct {
	Name    string             `json:"name"`
	Kind    storage.OptionKind `json:"type"`
	Label   string             `json:"label"`
	Display string             `json:"display"`
	Checked bool               `json:"checked"`
	Price   decimal.Decimal    `json:"price"`
	Hidden  bool               `json:"hidden"`
	Forced  bool               `json:"forced"`

	choices []storage.Choice
}

type Resolution struct {
	Template     string           `json:"template"`
	BasePrice    decimal.Decimal  `json:"base_price"`
	Options      []ResolvedOption `json:"options"`
	OptionsTotal decimal.Decimal  `json:"options_total"`
	Total        decimal.Decimal  `json:"total"`
}

// Summary: lower(имя опции) -> отображаемое значение на испанском.
func (r Resolution) Summary() map[string]string {
	out := make(map[string]string, len(r.Options))
	for _, o := range r.Options {
		out[strings.ToLower(o.Name)] = o.Display
	}
	return out
}

func (r Resolution) Option(name string) (ResolvedOption, bool) {
	for _, o := range r.Options {
		if o.Name == name {
			return o, true
		}
	}
	key := optionKey(name)
	for _, o := range r.Options {
		if optionKey(o.Name) == key {
			return o, true
		}
	}
	return ResolvedOption{}, false
}

// overrideAliases: испанские ключи формы, указывающие на англоязычные опции.
var overrideAliases = map[string]string{
	"alturatapa":      "lidsize",
	"tamanotapa":      "lidsize",
	"numerotapa":      "lidsize",
	"opcionbomba":     "pumpoptions",
	"bomba":           "pumpoptions",
	"bombadevacio":    "pumpoptions",
	"operacion":       "operation",
	"descargagas":     "gasflush",
	"inyecciongas":    "gasflush",
	"inyecciondegas":  "gasflush",
	"airepositivo":    "positiveairsealer",
	"positiveair":     "positiveairsealer",
	"sistemabiactivo": "biactivesealingsystem",
	"selladobiactivo": "biactivesealingsystem",
	"voltaje":         "voltage",
}

func optionKey(name string) string {
	return textnorm.Key(textnorm.StripPriceSuffix(name))
}

// optionKeys: все ключи, под которыми опция может прийти в Selection.
func optionKeys(name string) []string {
	keys := []string{textnorm.Key(name), optionKey(name)}
	if es := textnorm.Key(i18n.ToSpanish(textnorm.StripPriceSuffix(name))); es != "" {
		keys = append(keys, es)
	}
	return keys
}

// matchRank оценивает, насколько ключ выбора соответствует опции:
// 0 точное имя, 1 имя без регистра и пробелов, 2 имя без цены,
// 3 испанское имя или псевдоним. -1 означает, что ключ к опции не относится.
func matchRank(key, name string) int {
	if key == name {
		return 0
	}

	k := textnorm.Key(key)
	switch k {
	case "":
		return -1
	case textnorm.Key(name):
		return 1
	case optionKey(name):
		return 2
	}

	if alias, ok := overrideAliases[k]; ok {
		k = alias
	}
	for _, w := range optionKeys(name) {
		if k == w {
			return 3
		}
	}
	return -1
}

// lookup выбирает значение опции среди всех подходящих ключей.
// Побеждает лучший ранг, при равенстве ключ, меньший лексикографически,
// поэтому результат не зависит от порядка обхода map.
func (s Selection) lookup(name string) (any, bool) {
	bestKey, bestRank := "", -1
	for k := range s {
		r := matchRank(k, name)
		if r < 0 {
			continue
		}
		if bestRank < 0 || r < bestRank || (r == bestRank && k < bestKey) {
			bestKey, bestRank = k, r
		}
	}
	if bestRank < 0 {
		return nil, false
	}
	return s[bestKey], true
}

// WithOverrides добавляет к выбору ключи верхнего уровня запроса.
// Ключ пропускается, если он относится к опции шаблона, для которой в выборе уже есть значение.
// Ключи, не относящиеся ни к одной опции (contrato1_porcentaje и т.п.), добавляются, если их нет.
func (s Selection) WithOverrides(overrides Selection, tpl storage.MachineTemplate) Selection {
	out := make(Selection, len(s)+len(overrides))
	for k, v := range s {
		out[k] = v
	}

	for k, v := range overrides {
		if _, ok := out[k]; ok {
			continue
		}

		taken := false
		for _, o := range tpl.Options {
			if matchRank(k, o.Name) < 0 {
				continue
			}
			if _, ok := s.lookup(o.Name); ok {
				taken = true
				break
			}
		}
		if !taken {
			out[k] = v
		}
	}
	return out
}

// ParseBool разбирает значения чекбокса из формы и JSON.
// Непустая нераспознанная строка считается true.
func ParseBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case string:
		s := textnorm.Fold(strings.TrimSpace(x))
		switch s {
		case "", "0", "false", "no", "off", "none", "ninguno", "n":
			return false
		}
		return true
	default:
		return true
	}
}

// matchChoice ищет вариант по метке: точно, без аннотации цены, без регистра и языка.
func matchChoice(choices []storage.Choice, value any) (storage.Choice, bool) {
	raw := strings.TrimSpace(fmt.Sprint(value))
	if raw == "" || value == nil {
		return storage.Choice{}, false
	}

	for _, c := range choices {
		if c.Label == raw {
			return c, true
		}
	}

	candidates := []string{textnorm.Key(raw), textnorm.Key(textnorm.StripPriceSuffix(raw)), textnorm.Key(i18n.ToEnglish(textnorm.StripPriceSuffix(raw)))}
	for _, c := range choices {
		full := textnorm.Key(c.Label)
		short := textnorm.Key(textnorm.StripPriceSuffix(c.Label))
		for _, cand := range candidates {
			if cand != "" && (cand == full || cand == short) {
				return c, true
			}
		}
	}
	return storage.Choice{}, false
}

// Resolve применяет выбор пользователя и правила зависимостей к шаблону.
// Разрешение никогда не падает: нераспознанное значение даёт первый вариант или false.
func Resolve(tpl storage.MachineTemplate, sel Selection) Resolution {
	opts := make([]ResolvedOption, 0, len(tpl.Options))
	overridden := make(map[string]bool, len(tpl.Options))

	for _, o := range tpl.Options {
		ro := ResolvedOption{Name: o.Name, Kind: o.Spec.Kind}
		override, hasOverride := sel.lookup(o.Name)
		overridden[o.Name] = hasOverride

		if o.Spec.Kind == storage.KindCheckbox {
			ro.Checked = hasOverride && ParseBool(override)
			ro.Price = o.Spec.Price
		} else {
			ro.Kind = storage.KindSelect
			ro.choices = o.Spec.Choices
			if len(o.Spec.Choices) > 0 {
				chosen := o.Spec.Choices[0]
				if hasOverride {
					if c, ok := matchChoice(o.Spec.Choices, override); ok {
						chosen = c
					}
				}
				ro.Label = chosen.Label
				ro.Price = chosen.Price
			}
		}
		opts = append(opts, ro)
	}

	rules := RulesFor(tpl.Name, tpl)
	if v, ok := sel[MechanicalCutKey]; ok && v != nil {
		applyCutSwitch(opts, rules, wantsMechanicalCut(v), overridden)
	}
	ApplyDependencyRules(opts, rules)

	res := Resolution{
		Template:     tpl.Name,
		BasePrice:    tpl.BasePrice,
		OptionsTotal: decimal.Zero,
	}
	for i := range opts {
		finalize(&opts[i])
		res.OptionsTotal = res.OptionsTotal.Add(opts[i].delta())
	}
	res.Options = opts
	res.Total = tpl.BasePrice.Add(res.OptionsTotal)

	return res
}

// MechanicalCutKey: переключатель механического реза без знания меток модели.
// Явное значение самой опции операции важнее переключателя.
const MechanicalCutKey = "corte_mecanico"

func wantsMechanicalCut(v any) bool {
	if s, ok := v.(string); ok {
		f := textnorm.Fold(strings.TrimSpace(s))
		switch {
		case strings.Contains(f, "sin corte"), strings.Contains(f, "no mechanical cut"):
			return false
		case strings.Contains(f, "con corte"), strings.Contains(f, "with mechanical cut"):
			return true
		}
	}
	return ParseBool(v)
}

// applyCutSwitch выставляет опцию операции каждой связи mechanicalCut:
// чекбокс включается или выключается, у выбора берётся первый вариант с нужным смыслом.
func applyCutSwitch(opts []ResolvedOption, rules []DependencyRule, want bool, overridden map[string]bool) {
	for _, rule := range rules {
		if rule.Mode != ModeMechanicalCut {
			continue
		}
		op := findOption(opts, rule.Operation)
		if op == nil || overridden[op.Name] {
			continue
		}

		if op.Kind == storage.KindCheckbox {
			op.Checked = want
			continue
		}
		for _, c := range op.choices {
			if isMechanicalCutValue(c.Label, op.choices, rule.Operation) == want {
				op.choose(c)
				break
			}
		}
	}
}

func finalize(o *ResolvedOption) {
	if o.Kind == storage.KindCheckbox {
		if o.Hidden {
			o.Checked = false
		}
		o.Label = "No"
		if o.Checked {
			o.Label = "Yes"
		}
		o.Display = i18n.YesNo(o.Checked)
		return
	}
	o.Display = i18n.ToSpanish(textnorm.StripPriceSuffix(o.Label))
}

// delta: вклад опции в итог.
func (o ResolvedOption) delta() decimal.Decimal {
	if o.Hidden {
		return decimal.Zero
	}
	if o.Kind == storage.KindCheckbox {
		if o.Checked {
			return o.Price
		}
		return decimal.Zero
	}
	return o.Price
}

func (o *ResolvedOption) choose(c storage.Choice) {
	o.Label = c.Label
	o.Price = c.Price
}
