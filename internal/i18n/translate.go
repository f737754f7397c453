package i18n

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Pair: канонический английский термин и его испанский вариант.
type Pair struct {
	EN string
	ES string
}

var optionTokens = []Pair{
	{"Automatic lid, WITH mechanical cut", "Tapa automática CON corte mecánico"},
	{"Automatic lid with NO mechanical cut", "Tapa automática SIN corte mecánico"},
	{"Bi-active Sealing System", "Sistema de sellado biactivo"},
	{"Gas Flush", "Descarga de gas"},
	{"Positive Air Sealer", "Sellador de aire positivo"},
	{"Lid size", "Altura de tapa"},
	{"Pump Options", "Opciones de bomba"},
	{"Operation", "Operación"},
	{"Voltage", "Voltaje"},
	{"Machine Direction", "Dirección de la máquina"},
	{"Product Width (mm)", "Ancho del producto (mm)"},
	{"Product Height (mm)", "Altura del producto (mm)"},
	{"Product Length (mm)", "Longitud del producto (mm)"},
	{"Reject System", "Sistema de rechazo"},
	{"NOM-001-SCFI-2018/2014 Certification", "Certificación NOM-001-SCFI-2018/2014"},
	{"Sample parts kit included", "Kit de piezas de muestra incluido"},
	{"Index", "Índice"},
	{"Tray unload system", "Sistema de descarga de bandeja"},
	{"Tray unload", "Descarga de bandeja"},
	{"Registro de fotografías", "Registro de fotografías"},
	{"Proceso", "Proceso"},
	{"Configuración de matriz", "Configuración de matriz"},
	{"Configuración de la matriz", "Configuración de la matriz"},
	{"La forma de la matriz (Geometría)", "La forma de la matriz (Geometría)"},
	{"Forma de la matriz", "Forma de la matriz"},
	{"Yes", "Sí"},
	{"No", "No"},
	{"None", "Ninguno"},
}

// uiPhrases переводятся только целиком.
var uiPhrases = []Pair{
	{"With purchase order", "Con orden de compra"},
	{"Upon delivery notice", "Contra aviso de entrega"},
	{"Upon installation", "Al instalar"},
	{"In stock", "En stock"},
	{"6 to 8 weeks", "De 8 a 6 semanas"},
	{"Not applicable", "No aplica"},
	{"Included", "Incluido"},
	{"Not included", "No incluido"},
}

type Table struct {
	phrases []Pair
	toES    []Pair
	toEN    []Pair
}

func New(tokens, phrases []Pair) *Table {
	t := &Table{
		phrases: append([]Pair(nil), phrases...),
		toES:    append([]Pair(nil), tokens...),
		toEN:    append([]Pair(nil), tokens...),
	}

	// длинные токены раньше коротких, иначе "Tray unload" съест часть "Tray unload system"
	sort.SliceStable(t.toES, func(i, j int) bool { return len(t.toES[i].EN) > len(t.toES[j].EN) })
	sort.SliceStable(t.toEN, func(i, j int) bool { return len(t.toEN[i].ES) > len(t.toEN[j].ES) })

	return t
}

var Default = New(optionTokens, uiPhrases)

func ToSpanish(s string) string { return Default.ToSpanish(s) }

func ToEnglish(s string) string { return Default.ToEnglish(s) }

func YesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func (t *Table) ToSpanish(s string) string {
	for _, p := range t.phrases {
		if strings.EqualFold(strings.TrimSpace(s), p.EN) {
			return p.ES
		}
	}
	return substitute(s, t.toES, func(p Pair) (string, string) { return p.EN, p.ES })
}

func (t *Table) ToEnglish(s string) string {
	for _, p := range t.phrases {
		if strings.EqualFold(strings.TrimSpace(s), p.ES) {
			return p.EN
		}
	}
	return substitute(s, t.toEN, func(p Pair) (string, string) { return p.ES, p.EN })
}

// substitute заменяет токены за один проход слева направо.
// Уже переведённый текст повторно не сканируется.
func substitute(s string, pairs []Pair, dir func(Pair) (string, string)) string {
	if s == "" {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); {
		matched := false
		for _, p := range pairs {
			from, to := dir(p)
			if from == "" || !strings.HasPrefix(s[i:], from) {
				continue
			}
			if !boundaryBefore(s, i) || !boundaryAfter(s, i+len(from)) {
				continue
			}
			b.WriteString(to)
			i += len(from)
			matched = true
			break
		}
		if matched {
			continue
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		b.WriteString(s[i : i+size])
		i += size
	}

	return b.String()
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Labels: все испанские варианты, нужны для проверки обратимости.
func (t *Table) Labels() []Pair {
	return append([]Pair(nil), t.toES...)
}
