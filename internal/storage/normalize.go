package storage

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyNoise = regexp.MustCompile(`(?i)us\$|\$|usd|mxn|eur|\s`)

// ParseDecimal разбирает цену из строки, числа или json.Number.
// Нечитаемое значение даёт ноль.
func ParseDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case bool:
		return decimal.Zero
	case string:
		return parseDecimalString(x)
	case fmt.Stringer:
		return parseDecimalString(x.String())
	default:
		return decimal.Zero
	}
}

func parseDecimalString(s string) decimal.Decimal {
	s = strings.ReplaceAll(s, ",", "")
	s = currencyNoise.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func IsCheckboxType(t string) bool {
	switch strings.ToLower(strings.TrimSpace(t)) {
	case "checkbox", "bool", "boolean", "check", "chk":
		return true
	}
	return false
}

// Normalize приводит сохранённое представление опции к OptionSpec.
// Неизвестная форма превращается в пустой выбор.
func Normalize(raw any) OptionSpec {
	switch v := raw.(type) {
	case map[string]any:
		t, _ := v["type"].(string)
		if IsCheckboxType(t) {
			return Checkbox(ParseDecimal(v["price"]))
		}
		if strings.EqualFold(strings.TrimSpace(t), "select") {
			list, _ := v["choices"].([]any)
			return Select(normalizeChoices(list)...)
		}
	case []any:
		if len(v) == 2 {
			if tag, ok := v[0].(string); ok && tag == "chk" {
				return Checkbox(ParseDecimal(v[1]))
			}
		}
		return Select(normalizeChoices(v)...)
	case OptionSpec:
		return v
	}
	return Select()
}

func normalizeChoices(list []any) []Choice {
	choices := make([]Choice, 0, len(list))
	for _, item := range list {
		switch c := item.(type) {
		case map[string]any:
			label, _ := c["label"].(string)
			if strings.TrimSpace(label) == "" {
				continue
			}
			choices = append(choices, Choice{Label: label, Price: ParseDecimal(c["price"])})
		case []any:
			if len(c) != 2 {
				continue
			}
			label, ok := c[0].(string)
			if !ok || strings.TrimSpace(label) == "" {
				continue
			}
			choices = append(choices, Choice{Label: label, Price: ParseDecimal(c[1])})
		}
	}
	return choices
}
