package storage

const (
	MappingModeField = "field"
	MappingModeText  = "text"
)

// MappingRule: пользовательская привязка плейсхолдера к полю контекста или тексту.
type MappingRule struct {
	Mode  string `json:"mode"`
	Value string `json:"value"`
}

// TemplateMapping: placeholder -> правило для одного шаблона.
type TemplateMapping map[string]MappingRule

// MappingTable: kind -> template -> mapping.
type MappingTable map[string]map[string]TemplateMapping
