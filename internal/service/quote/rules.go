package quote

import (
	"strings"

	"cotizador/internal/lib/textnorm"
	"cotizador/internal/storage"
)

const (
	ModeMechanicalCut = "mechanicalCut"
	ModePumpOnLid     = "pumpOnLid"
)

// DependencyRule: связь между опциями одной модели.
type DependencyRule struct {
	Mode string `json:"mode"`

	// mechanicalCut
	Operation   string `json:"operation,omitempty"`
	Gas         string `json:"gas,omitempty"`
	PositiveAir string `json:"positive_air,omitempty"`

	// pumpOnLid
	Lid      string `json:"lid,omitempty"`
	Pump     string `json:"pump,omitempty"`
	Required string `json:"required,omitempty"`
}

func mechanicalCut(operation, gas string) DependencyRule {
	return DependencyRule{Mode: ModeMechanicalCut, Operation: operation, Gas: gas}
}

func pumpOnLid(lid, pump, required string) DependencyRule {
	return DependencyRule{Mode: ModePumpOnLid, Lid: lid, Pump: pump, Required: required}
}

// modelRules: связи по моделям, ключ это нормализованное имя модели.
var modelRules = map[string][]DependencyRule{
	"CM780":  {mechanicalCut("Mechanical Cut w/ Positive Air Sealer", "Gas Flush ($ 995 USD)")},
	"CM430":  {mechanicalCut("Operation", "Gas Flush ($ 995 USD)")},
	"CM860":  {mechanicalCut("Operation", "Gas Flush ($ 995 USD)")},
	"CM900A": {mechanicalCut("Operation", "Gas Flush ($ 995 USD)")},
	"CM1100": {
		mechanicalCut("Operation", "Gas Flush ($ 995 USD)"),
		pumpOnLid("Lid size", "Pump Options", "2 x 200 m3"),
	},
}

// RulesFor возвращает связи модели. Для моделей вне реестра связи
// выводятся по именам опций шаблона.
func RulesFor(model string, tpl storage.MachineTemplate) []DependencyRule {
	key := strings.ToUpper(strings.TrimSuffix(strings.TrimSpace(model), ".docx"))
	if rules, ok := modelRules[key]; ok {
		return rules
	}
	return inferRules(tpl)
}

func inferRules(tpl storage.MachineTemplate) []DependencyRule {
	var operation, gas, positiveAir, lid, pump string

	for _, o := range tpl.Options {
		key := optionKey(o.Name)
		switch {
		case key == "operation" || key == "operacion":
			operation = o.Name
		case strings.Contains(key, "mechanicalcut") && operation == "":
			operation = o.Name
		case key == "gasflush" || key == "descargadegas":
			gas = o.Name
		case strings.Contains(key, "positiveair"):
			positiveAir = o.Name
		case key == "lidsize" || key == "alturadetapa":
			lid = o.Name
		case key == "pumpoptions" || key == "opcionesdebomba":
			pump = o.Name
		}
	}

	var rules []DependencyRule
	if operation != "" && gas != "" {
		r := mechanicalCut(operation, gas)
		if positiveAir != operation {
			r.PositiveAir = positiveAir
		}
		rules = append(rules, r)
	}
	if lid != "" && pump != "" {
		rules = append(rules, pumpOnLid(lid, pump, "2 x 200 m3"))
	}
	return rules
}

func findOption(opts []ResolvedOption, name string) *ResolvedOption {
	if name == "" {
		return nil
	}
	for i := range opts {
		if opts[i].Name == name {
			return &opts[i]
		}
	}
	key := optionKey(name)
	for i := range opts {
		if optionKey(opts[i].Name) == key {
			return &opts[i]
		}
	}
	return nil
}

// ApplyDependencyRules применяет связи по порядку. Связь с отсутствующей опцией пропускается.
// Повторное применение с теми же значениями ничего не меняет.
func ApplyDependencyRules(opts []ResolvedOption, rules []DependencyRule) {
	for _, rule := range rules {
		switch rule.Mode {
		case ModeMechanicalCut:
			op := findOption(opts, rule.Operation)
			gas := findOption(opts, rule.Gas)
			if op == nil || gas == nil {
				continue
			}

			if IsMechanicalCut(op, rule.Operation) {
				gas.Checked = false
				gas.Hidden = true
				gas.Forced = true
				if pa := findOption(opts, rule.PositiveAir); pa != nil && pa != op {
					pa.Checked = true
					pa.Forced = true
					if pa.Kind == storage.KindSelect {
						if c, ok := matchChoice(pa.choices, "Yes"); ok {
							pa.choose(c)
						}
					}
				}
			} else {
				gas.Hidden = false
				gas.Forced = false
			}
		case ModePumpOnLid:
			lid := findOption(opts, rule.Lid)
			pump := findOption(opts, rule.Pump)
			if lid == nil || pump == nil || len(pump.choices) == 0 {
				continue
			}

			target := pump.choices[0]
			if strings.Contains(strings.ToLower(lidValue(lid)), "12") {
				req := strings.ToLower(rule.Required)
				for _, c := range pump.choices {
					if strings.Contains(strings.ToLower(c.Label), req) {
						target = c
						break
					}
				}
			}
			pump.choose(target)
			pump.Forced = true
		default:
			// неизвестный режим игнорируем
		}
	}
}

func lidValue(o *ResolvedOption) string {
	if o.Kind == storage.KindCheckbox {
		return ""
	}
	return o.Label
}

// IsMechanicalCut определяет, означает ли значение операции наличие механического реза.
func IsMechanicalCut(op *ResolvedOption, operationKey string) bool {
	if op.Kind == storage.KindCheckbox {
		return op.Checked
	}
	return isMechanicalCutValue(op.Label, op.choices, operationKey)
}

func isMechanicalCutValue(value string, choices []storage.Choice, operationKey string) bool {
	s := strings.ToLower(strings.TrimSpace(value))
	folded := textnorm.Fold(s)

	if strings.Contains(s, "with mechanical cut") || strings.HasPrefix(s, "yes") ||
		strings.HasPrefix(s, "sí") || strings.Contains(folded, "con corte mec") {
		return true
	}
	if strings.Contains(s, "no mechanical cut") || strings.HasPrefix(s, "none") ||
		strings.HasPrefix(s, "ninguno") || strings.Contains(folded, "sin corte mec") {
		return false
	}

	// сопоставление с каноническими метками варианта
	for _, c := range choices {
		if c.Label != value {
			continue
		}
		lab := strings.ToLower(c.Label)
		if strings.Contains(lab, "with mechanical cut") || strings.HasPrefix(lab, "yes") {
			return true
		}
		if strings.Contains(lab, "no mechanical cut") || strings.HasPrefix(lab, "none") {
			return false
		}
	}

	// позиционный запасной вариант: сама опция называется "... mechanical cut ..."
	if strings.Contains(strings.ToLower(operationKey), "mechanical cut") {
		return !strings.Contains(s, "none") && !strings.Contains(s, "ninguno")
	}
	return false
}
