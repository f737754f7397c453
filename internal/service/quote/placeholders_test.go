package quote

import (
	"testing"

	"cotizador/internal/storage"

	"github.com/stretchr/testify/assert"
)

func sampleContext(sel Selection) QuoteContext {
	tpl := storage.MachineTemplate{
		Name:      "CM1100",
		BasePrice: d("10000"),
		Options: []storage.NamedOption{
			{Name: "Voltage", Spec: storage.Select(choice("220V", "0"), choice("440V", "250"))},
			{Name: "Operation", Spec: storage.Select(
				choice("Automatic lid with NO mechanical cut", "0"),
				choice("Automatic lid, WITH mechanical cut", "1500"),
			)},
			{Name: "Gas Flush ($ 995 USD)", Spec: storage.Checkbox(d("995"))},
			{Name: "Lid size", Spec: storage.Select(choice("8 inch", "0"), choice("12 inch", "0"))},
			{Name: "Pump Options", Spec: storage.Select(choice("1 x 100 m3", "0"), choice("2 x 200 m3", "300"))},
		},
	}

	return QuoteContext{
		Model:      "CM1100",
		Client:     "Alimentos del Norte",
		Advisor:    "Laura",
		Date:       "01/02/2025",
		Validity:   "15 días",
		Currency:   "USD",
		Contract:   ContractFromSelection(sel),
		Resolution: Resolve(tpl, sel),
	}
}

func TestBuildPlaceholders_Header(t *testing.T) {
	data := BuildPlaceholders(sampleContext(Selection{"Voltage": "440V", "Gas Flush": true}), nil)

	assert.Equal(t, "Alimentos del Norte", data["cliente"])
	assert.Equal(t, "Alimentos del Norte", data["nombre_del_cliente"])
	assert.Equal(t, "15 días", data["validez"])
	assert.Equal(t, "En stock", data["disponibilidad"])
	assert.Equal(t, "US$11,245.00", data["precio"])
	assert.Equal(t, data["precio"], data["total"])
	assert.Equal(t, "US$10,000.00", data["precio_base"])
	assert.Equal(t, "USD", data["moneda"])
	_, hasFreight := data["flete_monto"]
	assert.False(t, hasFreight)
}

func TestBuildPlaceholders_Options(t *testing.T) {
	data := BuildPlaceholders(sampleContext(Selection{"Lid size": "12 inch", "Gas Flush": "yes"}), nil)

	assert.Equal(t, "220V", data["voltaje"])
	assert.Equal(t, "12 inch", data["altura_tapa"])
	assert.Equal(t, "2 x 200 m3", data["bomba"])
	assert.Equal(t, "Tapa automática SIN corte mecánico", data["operacion"])
	assert.Equal(t, "Sin corte mecánico", data["corte_mecanico"])
	assert.Equal(t, "Sí", data["gas_flush"])
	assert.Equal(t, "Sí", data["gas flush ($ 995 usd)"])
	assert.Equal(t, "Sí", data["gas flush"])
}

func TestBuildPlaceholders_MechanicalCut(t *testing.T) {
	data := BuildPlaceholders(sampleContext(Selection{
		"Operation": "Automatic lid, WITH mechanical cut",
		"Gas Flush": true,
	}), nil)

	assert.Equal(t, "Con corte mecánico", data["corte_mecanico"])
	assert.Equal(t, "No", data["descarga_de_gas"])
	assert.Equal(t, "US$11,500.00", data["precio_total"])
}

func TestBuildPlaceholders_Contract(t *testing.T) {
	data := BuildPlaceholders(sampleContext(Selection{
		"contrato1_porcentaje": "50%",
		"contrato2_condicion":  "Upon installation",
	}), nil)

	assert.Equal(t, "50%", data["concepto1"])
	assert.Equal(t, "50%", data["concept_1"])
	assert.Equal(t, "Con orden de compra", data["vencimiento1"])
	assert.Equal(t, "Al instalar", data["due2"])
	assert.Equal(t, "10%", data["concept3"])
}

func TestBuildPlaceholders_Mapping(t *testing.T) {
	mapping := storage.TemplateMapping{
		"{{ comprador }}": {Mode: storage.MappingModeField, Value: "cliente"},
		"nota_fija":       {Mode: storage.MappingModeText, Value: "Precios sin IVA"},
		"bomba_elegida":   {Mode: storage.MappingModeField, Value: "option:PUMP OPTIONS"},
		"pagos":           {Mode: storage.MappingModeField, Value: "conceptos_resumen"},
		"sin_valor":       {Mode: storage.MappingModeField, Value: "no_existe"},
	}

	data := BuildPlaceholders(sampleContext(Selection{}), mapping)

	assert.Equal(t, "Alimentos del Norte", data["comprador"])
	assert.Equal(t, "Precios sin IVA", data["nota_fija"])
	assert.Equal(t, "1 x 100 m3", data["bomba_elegida"])
	assert.Equal(t, "35% - Con orden de compra, 55% - Contra aviso de entrega, 10% - Al instalar", data["pagos"])
	_, ok := data["sin_valor"]
	assert.False(t, ok)
}

func TestBuildPlaceholders_Freight(t *testing.T) {
	qc := sampleContext(Selection{})
	qc.Currency = "mxn"
	qc.Freight = d("1500")
	qc.FreightText = "Flete incluido a CDMX"

	data := BuildPlaceholders(qc, nil)
	assert.Equal(t, "$ 1,500.00 MXN", data["flete_monto"])
	assert.Equal(t, "Flete incluido a CDMX", data["flete_texto"])
	assert.Equal(t, "MXN", data["moneda"])
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "US$1,050.00", FormatMoney(d("1050"), "usd"))
	assert.Equal(t, "US$0.50", FormatMoney(d("0.5"), ""))
	assert.Equal(t, "$ 1,234,567.89 MXN", FormatMoney(d("1234567.891"), "MXN"))
	assert.Equal(t, "US$-1,000.00", FormatMoney(d("-1000"), "USD"))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "35%", FormatPercent("35"))
	assert.Equal(t, "35%", FormatPercent("35%"))
	assert.Equal(t, "100%", FormatPercent(140))
	assert.Equal(t, "0%", FormatPercent("-3"))
	assert.Equal(t, "12.5%", FormatPercent(12.5))
	assert.Equal(t, "", FormatPercent(""))
}

func TestCutLabel(t *testing.T) {
	assert.Equal(t, "Con corte mecánico", cutLabel("Sí"))
	assert.Equal(t, "Con corte mecánico", cutLabel("Automatic lid, WITH mechanical cut"))
	assert.Equal(t, "Sin corte mecánico", cutLabel("Sin corte"))
	assert.Equal(t, "Sin corte mecánico", cutLabel("No"))
}

func TestPlaceholderName(t *testing.T) {
	assert.Equal(t, "cliente", PlaceholderName("{{ cliente }}"))
	assert.Equal(t, "cliente", PlaceholderName("cliente"))
}
