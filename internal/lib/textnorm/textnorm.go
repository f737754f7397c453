package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold снимает диакритику и приводит к нижнему регистру: "Sí" -> "si".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Key строит ключ для сравнения имён опций без диакритики, регистра, пробелов, '_' и '-'.
func Key(s string) string {
	folded := Fold(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r == ' ' || r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// StripPriceSuffix отрезает аннотацию цены: "Gas Flush ($ 995 USD)" -> "Gas Flush".
func StripPriceSuffix(label string) string {
	if i := strings.Index(label, "($"); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}
