package storage

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

var ErrTemplateNotFound = errors.New("template not found")

type OptionKind string

const (
	KindCheckbox OptionKind = "checkbox"
	KindSelect   OptionKind = "select"
)

type Choice struct {
	Label string          `json:"label"`
	Price decimal.Decimal `json:"price"`
}

// OptionSpec описывает опцию машины: либо чекбокс с ценой, либо выбор из списка.
type OptionSpec struct {
	Kind    OptionKind      `json:"type"`
	Price   decimal.Decimal `json:"price"`
	Choices []Choice        `json:"choices,omitempty"`
}

func Checkbox(price decimal.Decimal) OptionSpec {
	return OptionSpec{Kind: KindCheckbox, Price: price}
}

func Select(choices ...Choice) OptionSpec {
	return OptionSpec{Kind: KindSelect, Choices: choices}
}

// IsEmpty: выбор без вариантов, такой при сохранении выбрасывается.
func (o OptionSpec) IsEmpty() bool {
	return o.Kind != KindCheckbox && len(o.Choices) == 0
}

type NamedOption struct {
	Name string     `json:"name"`
	Spec OptionSpec `json:"spec"`
}

type MachineTemplate struct {
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"base"`
	Options   []NamedOption   `json:"options"`
}

func (t MachineTemplate) Option(name string) (OptionSpec, bool) {
	for _, o := range t.Options {
		if o.Name == name {
			return o.Spec, true
		}
	}
	return OptionSpec{}, false
}

func (t MachineTemplate) Clone() MachineTemplate {
	out := MachineTemplate{Name: t.Name, BasePrice: t.BasePrice}
	out.Options = make([]NamedOption, len(t.Options))
	for i, o := range t.Options {
		spec := o.Spec
		if o.Spec.Choices != nil {
			spec.Choices = append([]Choice(nil), o.Spec.Choices...)
		}
		out.Options[i] = NamedOption{Name: o.Name, Spec: spec}
	}
	return out
}

type Catalog map[string]MachineTemplate

func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for name, t := range c {
		out[name] = t.Clone()
	}
	return out
}

func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
