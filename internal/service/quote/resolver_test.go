package quote

import (
	"testing"

	"cotizador/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func choice(label, price string) storage.Choice {
	return storage.Choice{Label: label, Price: d(price)}
}

func voltageTemplate() storage.MachineTemplate {
	return storage.MachineTemplate{
		Name:      "TS100",
		BasePrice: d("1000.00"),
		Options: []storage.NamedOption{
			{Name: "Voltage", Spec: storage.Select(choice("110V", "0"), choice("220V", "50"))},
		},
	}
}

func cutTemplate() storage.MachineTemplate {
	return storage.MachineTemplate{
		Name:      "TS200",
		BasePrice: d("5000"),
		Options: []storage.NamedOption{
			{Name: "Operation", Spec: storage.Select(
				choice("Automatic lid with NO mechanical cut", "0"),
				choice("Automatic lid, WITH mechanical cut", "1200"),
			)},
			{Name: "Gas Flush ($ 995 USD)", Spec: storage.Checkbox(d("995.00"))},
		},
	}
}

func TestResolve_SelectOverride(t *testing.T) {
	res := Resolve(voltageTemplate(), Selection{"Voltage": "220V"})

	assert.True(t, res.Total.Equal(d("1050.00")), "total %s", res.Total)
	assert.True(t, res.OptionsTotal.Equal(d("50")))

	o, ok := res.Option("Voltage")
	require.True(t, ok)
	assert.Equal(t, "220V", o.Label)
	assert.Equal(t, "220V", o.Display)
}

func TestResolve_SpanishKeyAndPriceSuffix(t *testing.T) {
	res := Resolve(voltageTemplate(), Selection{"voltaje": "220V ($ 50 USD)"})
	assert.True(t, res.Total.Equal(d("1050")), "total %s", res.Total)
}

func TestResolve_DefaultsMatchBasePlusFirstChoices(t *testing.T) {
	tpl := storage.MachineTemplate{
		Name:      "TS300",
		BasePrice: d("2500"),
		Options: []storage.NamedOption{
			{Name: "Voltage", Spec: storage.Select(choice("220V", "40"), choice("440V", "90"))},
			{Name: "Reject System", Spec: storage.Checkbox(d("700"))},
			{Name: "Index", Spec: storage.Select(choice("Manual", "15"))},
		},
	}

	res := Resolve(tpl, Selection{})

	// база + первые варианты, чекбоксы выключены
	assert.True(t, res.Total.Equal(d("2555")), "total %s", res.Total)
	reject, ok := res.Option("Reject System")
	require.True(t, ok)
	assert.False(t, reject.Checked)
	assert.Equal(t, "No", reject.Label)
	assert.Equal(t, "No", reject.Display)
}

func TestResolve_UnknownOverrideIgnored(t *testing.T) {
	base := Resolve(voltageTemplate(), Selection{})
	res := Resolve(voltageTemplate(), Selection{"Conveyor": "Yes", "Voltage": "999V"})

	assert.True(t, base.Total.Equal(res.Total))
	assert.True(t, res.Total.Equal(d("1000")))
}

func TestResolve_MechanicalCutDisablesGas(t *testing.T) {
	res := Resolve(cutTemplate(), Selection{
		"Operation":             "Automatic lid, WITH mechanical cut",
		"Gas Flush ($ 995 USD)": true,
	})

	gas, ok := res.Option("Gas Flush ($ 995 USD)")
	require.True(t, ok)
	assert.False(t, gas.Checked)
	assert.True(t, gas.Hidden)
	assert.True(t, gas.Forced)
	assert.Equal(t, "No", gas.Display)
	assert.True(t, res.Total.Equal(d("6200")), "total %s", res.Total)
}

func TestResolve_SpanishMechanicalCutValue(t *testing.T) {
	res := Resolve(cutTemplate(), Selection{
		"operacion":    "Tapa automática CON corte mecánico",
		"descarga gas": "si",
	})

	gas, ok := res.Option("Gas Flush")
	require.True(t, ok)
	assert.False(t, gas.Checked)
	assert.True(t, gas.Hidden)
}

func TestResolve_UnrecognizedOperationKeepsGas(t *testing.T) {
	tpl := cutTemplate()
	tpl.Options[0].Spec = storage.Select(choice("Manual lid", "0"), choice("Automatic lid", "0"))

	res := Resolve(tpl, Selection{"Operation": "Automatic lid", "Gas Flush": "yes"})

	gas, ok := res.Option("Gas Flush")
	require.True(t, ok)
	assert.True(t, gas.Checked)
	assert.False(t, gas.Hidden)
	assert.Equal(t, "Sí", gas.Display)
	assert.True(t, res.Total.Equal(d("5995")), "total %s", res.Total)
}

func TestResolve_PumpFollowsLid(t *testing.T) {
	tpl := storage.MachineTemplate{
		Name:      "CM1100",
		BasePrice: d("0"),
		Options: []storage.NamedOption{
			{Name: "Lid size", Spec: storage.Select(choice("8 inch", "0"), choice("12 inch", "0"))},
			{Name: "Pump Options", Spec: storage.Select(choice("1 x 100 m3", "0"), choice("2 x 200 m3", "300"))},
		},
	}

	res := Resolve(tpl, Selection{"Lid size": "12 inch", "Pump Options": "1 x 100 m3"})
	pump, ok := res.Option("Pump Options")
	require.True(t, ok)
	assert.Equal(t, "2 x 200 m3", pump.Label)
	assert.True(t, pump.Price.Equal(d("300.00")))
	assert.True(t, res.Total.Equal(d("300")))

	res = Resolve(tpl, Selection{"altura_tapa": "8 inch", "bomba": "2 x 200 m3"})
	pump, _ = res.Option("Pump Options")
	assert.Equal(t, "1 x 100 m3", pump.Label)
	assert.True(t, res.Total.IsZero())
}

func TestApplyDependencyRules_Idempotent(t *testing.T) {
	opts := []ResolvedOption{
		{
			Name:  "Operation",
			Kind:  storage.KindSelect,
			Label: "Automatic lid, WITH mechanical cut",
			choices: []storage.Choice{
				choice("Automatic lid with NO mechanical cut", "0"),
				choice("Automatic lid, WITH mechanical cut", "0"),
			},
		},
		{Name: "Gas Flush", Kind: storage.KindCheckbox, Checked: true, Price: d("995")},
		{Name: "Positive Air Sealer", Kind: storage.KindCheckbox, Price: d("450")},
	}
	rules := []DependencyRule{{
		Mode:        ModeMechanicalCut,
		Operation:   "Operation",
		Gas:         "Gas Flush",
		PositiveAir: "Positive Air Sealer",
	}}

	ApplyDependencyRules(opts, rules)
	first := append([]ResolvedOption(nil), opts...)
	ApplyDependencyRules(opts, rules)

	assert.Equal(t, first, opts)
	assert.False(t, opts[1].Checked)
	assert.True(t, opts[1].Hidden)
	assert.True(t, opts[2].Checked)
}

func TestApplyDependencyRules_MissingOptionsAreNoop(t *testing.T) {
	opts := []ResolvedOption{{Name: "Voltage", Kind: storage.KindSelect, Label: "220V"}}
	before := append([]ResolvedOption(nil), opts...)

	ApplyDependencyRules(opts, modelRules["CM1100"])
	assert.Equal(t, before, opts)
}

func TestIsMechanicalCutValue(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		operation string
		want      bool
	}{
		{"english with", "Automatic lid, WITH mechanical cut", "Operation", true},
		{"english without", "Automatic lid with NO mechanical cut", "Operation", false},
		{"yes prefix", "Yes", "Operation", true},
		{"spanish yes", "Sí", "Operation", true},
		{"spanish with", "Tapa automática CON corte mecánico", "Operation", true},
		{"spanish without", "Tapa automática SIN corte mecánico", "Operation", false},
		{"none", "None", "Mechanical Cut w/ Positive Air Sealer", false},
		{"positional", "Standard", "Mechanical Cut w/ Positive Air Sealer", true},
		{"boundary", "Standard", "Operation", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isMechanicalCutValue(tt.value, nil, tt.operation))
		})
	}
}

func TestParseBool(t *testing.T) {
	for _, v := range []any{true, "1", "yes", "Sí", "on", 1, 2.5, "x"} {
		assert.True(t, ParseBool(v), "%v", v)
	}
	for _, v := range []any{nil, false, "", "0", "false", "No", "off", "none", "Ninguno", "n", 0} {
		assert.False(t, ParseBool(v), "%v", v)
	}
}

func TestRulesFor_InferredForUnknownModel(t *testing.T) {
	rules := RulesFor("TS200", cutTemplate())
	require.Len(t, rules, 1)
	assert.Equal(t, ModeMechanicalCut, rules[0].Mode)
	assert.Equal(t, "Operation", rules[0].Operation)
	assert.Equal(t, "Gas Flush ($ 995 USD)", rules[0].Gas)

	assert.Equal(t, modelRules["CM780"], RulesFor("cm780.docx", storage.MachineTemplate{}))
}

func TestResolve_ConflictingSpellingsAreStable(t *testing.T) {
	tests := []struct {
		name  string
		sel   Selection
		total string
	}{
		{"exact name wins over alias", Selection{"Voltage": "220V", "voltaje": "110V"}, "1050"},
		{"canonical key wins over alias", Selection{"voltage": "220V", "Voltaje": "110V"}, "1050"},
		{"same rank picks smaller key", Selection{"VOLTAGE": "110V", "voltage": "220V"}, "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				res := Resolve(voltageTemplate(), tt.sel)
				require.True(t, res.Total.Equal(d(tt.total)), "run %d total %s", i, res.Total)
			}
		})
	}
}

func TestSelection_WithOverrides(t *testing.T) {
	sel := Selection{"voltage": "110V"}
	merged := sel.WithOverrides(Selection{"Voltaje": "220V", "contrato1_porcentaje": "40", "Gas Flush": true}, voltageTemplate())

	assert.Equal(t, Selection{"voltage": "110V", "contrato1_porcentaje": "40", "Gas Flush": true}, merged)
	assert.True(t, Resolve(voltageTemplate(), merged).Total.Equal(d("1000")))

	// без выбора ключ верхнего уровня применяется
	merged = Selection(nil).WithOverrides(Selection{"Voltaje": "220V"}, voltageTemplate())
	assert.True(t, Resolve(voltageTemplate(), merged).Total.Equal(d("1050")))
}

func positiveAirTemplate() storage.MachineTemplate {
	tpl := cutTemplate()
	tpl.Name = "TS400"
	tpl.Options = append(tpl.Options, storage.NamedOption{Name: "Positive Air Sealer", Spec: storage.Checkbox(d("800"))})
	return tpl
}

func TestResolve_MechanicalCutForcesPositiveAir(t *testing.T) {
	res := Resolve(positiveAirTemplate(), Selection{
		"Operation":           "Automatic lid, WITH mechanical cut",
		"Gas Flush":           true,
		"Positive Air Sealer": false,
	})

	air, ok := res.Option("Positive Air Sealer")
	require.True(t, ok)
	assert.True(t, air.Checked)
	assert.True(t, air.Forced)
	assert.Equal(t, "Sí", air.Display)

	gas, ok := res.Option("Gas Flush")
	require.True(t, ok)
	assert.True(t, gas.Hidden)

	// база + рез + воздух, газ не считается
	assert.True(t, res.Total.Equal(d("7000")), "total %s", res.Total)
}

func TestResolve_NoCutLeavesPositiveAirToUser(t *testing.T) {
	res := Resolve(positiveAirTemplate(), Selection{"Gas Flush": true})

	air, ok := res.Option("Positive Air Sealer")
	require.True(t, ok)
	assert.False(t, air.Checked)
	assert.False(t, air.Forced)
	assert.True(t, res.Total.Equal(d("5995")), "total %s", res.Total)
}

func TestResolve_CutSwitch(t *testing.T) {
	tests := []struct {
		name  string
		sel   Selection
		label string
		total string
	}{
		{"switch on", Selection{MechanicalCutKey: true, "Gas Flush": true}, "Automatic lid, WITH mechanical cut", "6200"},
		{"spanish text", Selection{MechanicalCutKey: "Con corte mecánico", "Gas Flush": true}, "Automatic lid, WITH mechanical cut", "6200"},
		{"switch off", Selection{MechanicalCutKey: "Sin corte mecánico", "Gas Flush": true}, "Automatic lid with NO mechanical cut", "5995"},
		{"explicit operation wins", Selection{MechanicalCutKey: true, "Operation": "Automatic lid with NO mechanical cut"}, "Automatic lid with NO mechanical cut", "5000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(cutTemplate(), tt.sel)

			op, ok := res.Option("Operation")
			require.True(t, ok)
			assert.Equal(t, tt.label, op.Label)
			assert.True(t, res.Total.Equal(d(tt.total)), "total %s", res.Total)
		})
	}
}
