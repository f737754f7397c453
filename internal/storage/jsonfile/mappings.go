package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cotizador/internal/storage"

	"github.com/goccy/go-json"
)

// MappingStore хранит пользовательские привязки плейсхолдеров по шаблонам.
type MappingStore struct {
	path string
	mu   sync.Mutex
}

func NewMappingStore(path string) *MappingStore {
	return &MappingStore{path: path}
}

func (s *MappingStore) read() (storage.MappingTable, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.MappingTable{}, nil
		}
		return nil, err
	}

	table := storage.MappingTable{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return table, nil
	}
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, err
	}
	return table, nil
}

// GetMapping возвращает привязки шаблона; отсутствие файла или записи даёт пустую карту.
func (s *MappingStore) GetMapping(ctx context.Context, kind, template string) (storage.TemplateMapping, error) {
	const op = "storage.jsonfile.MappingStore.GetMapping"

	s.mu.Lock()
	table, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	mapping := storage.TemplateMapping{}
	for k, v := range table[kind][template] {
		mapping[k] = v
	}
	return mapping, nil
}

func (s *MappingStore) SetMapping(ctx context.Context, kind, template string, mapping storage.TemplateMapping) error {
	const op = "storage.jsonfile.MappingStore.SetMapping"

	for ph, rule := range mapping {
		if rule.Mode != storage.MappingModeField && rule.Mode != storage.MappingModeText {
			return fmt.Errorf("%s: placeholder %q: unknown mode %q", op, ph, rule.Mode)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: read: %w", op, err)
	}

	if table[kind] == nil {
		table[kind] = map[string]storage.TemplateMapping{}
	}
	if len(mapping) == 0 {
		delete(table[kind], template)
	} else {
		table[kind][template] = mapping
	}

	data, err := json.MarshalIndent(table, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
