package quote

import (
	"strings"

	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatMoney: USD -> "US$1,050.00", прочие валюты -> "$ 1,050.00 MXN".
func FormatMoney(d decimal.Decimal, currency string) string {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		cur = "USD"
	}
	s := groupThousands(d.StringFixed(2))
	if cur == "USD" {
		return "US$" + s
	}
	return "$ " + s + " " + cur
}

func groupThousands(fixed string) string {
	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac := fixed, ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, frac = fixed[:i], fixed[i:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPercent ограничивает значение 0..100 и добавляет "%": "35" -> "35%".
func FormatPercent(v any) string {
	raw := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(toString(v)), "%"))
	if raw == "" {
		return ""
	}
	d := storage.ParseDecimal(raw)
	if d.LessThan(decimal.Zero) {
		d = decimal.Zero
	}
	if d.GreaterThan(hundred) {
		d = hundred
	}
	return d.String() + "%"
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case decimal.Decimal:
		return x.String()
	default:
		return storage.ParseDecimal(x).String()
	}
}
