package jsonfile

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"

	"cotizador/internal/storage"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

var thousandsSep = regexp.MustCompile(`(\d),(\d)`)

// CatalogStore: каталог машин в памяти, привязанный к JSON-файлу.
type CatalogStore struct {
	path      string
	backupDir string
	log       *slog.Logger

	mu      sync.RWMutex
	catalog storage.Catalog
}

func NewCatalogStore(log *slog.Logger, path, backupDir string) *CatalogStore {
	return &CatalogStore{
		path:      path,
		backupDir: backupDir,
		log:       log,
		catalog:   storage.Catalog{},
	}
}

type fileTemplate struct {
	Base    any            `json:"base"`
	Options map[string]any `json:"options"`
	Order   []string       `json:"order,omitempty"`
}

// Load перечитывает файл. Ошибка чтения или разбора даёт пустой каталог.
func (s *CatalogStore) Load() storage.Catalog {
	const op = "storage.jsonfile.CatalogStore.Load"

	catalog, err := readCatalogFile(s.path)
	if err != nil {
		s.log.Warn("catalog not loaded, starting empty",
			slog.String("op", op),
			slog.String("path", s.path),
			slog.String("error", err.Error()))
		catalog = storage.Catalog{}
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()

	return catalog.Clone()
}

func readCatalogFile(path string) (storage.Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	catalog, err := DecodeCatalog(raw)
	if err == nil {
		return catalog, nil
	}

	// вторая попытка: числа с разделителями тысяч вида 1,050
	cleaned := raw
	for {
		next := thousandsSep.ReplaceAll(cleaned, []byte("$1$2"))
		if bytes.Equal(next, cleaned) {
			break
		}
		cleaned = next
	}

	catalog, retryErr := DecodeCatalog(cleaned)
	if retryErr != nil {
		return nil, err
	}
	return catalog, nil
}

// DecodeCatalog разбирает JSON каталога и нормализует все опции.
func DecodeCatalog(raw []byte) (storage.Catalog, error) {
	const op = "storage.jsonfile.DecodeCatalog"

	var files map[string]fileTemplate
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&files); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalog := make(storage.Catalog, len(files))
	for name, ft := range files {
		tpl := storage.MachineTemplate{Name: name, BasePrice: storage.ParseDecimal(ft.Base)}
		for _, optName := range optionOrder(ft) {
			spec := storage.Normalize(ft.Options[optName])
			if spec.IsEmpty() {
				continue
			}
			tpl.Options = append(tpl.Options, storage.NamedOption{Name: optName, Spec: spec})
		}
		catalog[name] = tpl
	}

	return catalog, nil
}

func optionOrder(ft fileTemplate) []string {
	seen := make(map[string]bool, len(ft.Options))
	order := make([]string, 0, len(ft.Options))
	for _, name := range ft.Order {
		if _, ok := ft.Options[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}

	var rest []string
	for name := range ft.Options {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)

	return append(order, rest...)
}

type price decimal.Decimal

func (p price) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(p).String()), nil
}

type fileChoice struct {
	Label string `json:"label"`
	Price price  `json:"price"`
}

type fileOption struct {
	Type    storage.OptionKind `json:"type"`
	Price   *price             `json:"price,omitempty"`
	Choices []fileChoice       `json:"choices,omitempty"`
}

type fileTemplateOut struct {
	Base    price                 `json:"base"`
	Options map[string]fileOption `json:"options"`
	Order   []string              `json:"order"`
}

// EncodeCatalog сериализует каталог с отступом 2, пустые выборы отбрасываются.
func EncodeCatalog(catalog storage.Catalog) ([]byte, error) {
	out := make(map[string]fileTemplateOut, len(catalog))
	for name, tpl := range catalog {
		ft := fileTemplateOut{
			Base:    price(tpl.BasePrice),
			Options: make(map[string]fileOption, len(tpl.Options)),
			Order:   make([]string, 0, len(tpl.Options)),
		}
		for _, o := range tpl.Options {
			if o.Spec.IsEmpty() {
				continue
			}
			fo := fileOption{Type: o.Spec.Kind}
			if o.Spec.Kind == storage.KindCheckbox {
				p := price(o.Spec.Price)
				fo.Price = &p
			} else {
				fo.Type = storage.KindSelect
				for _, c := range o.Spec.Choices {
					fo.Choices = append(fo.Choices, fileChoice{Label: c.Label, Price: price(c.Price)})
				}
			}
			ft.Options[o.Name] = fo
			ft.Order = append(ft.Order, o.Name)
		}
		out[name] = ft
	}

	return json.MarshalIndent(out, "", "  ")
}

// Save делает резервную копию текущего файла и атомарно записывает новый каталог.
func (s *CatalogStore) Save(ctx context.Context, catalog storage.Catalog) error {
	const op = "storage.jsonfile.CatalogStore.Save"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	data, err := EncodeCatalog(catalog)
	if err != nil {
		return fmt.Errorf("%s: encode: %w", op, err)
	}

	// в памяти держим ровно то, что прочитается из файла после перезапуска
	persisted, err := DecodeCatalog(data)
	if err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if backup, err := backupFile(s.path, s.backupDir, "machines"); err != nil {
		s.log.Warn("catalog backup failed", slog.String("op", op), slog.String("error", err.Error()))
	} else if backup != "" {
		s.log.Debug("catalog backup written", slog.String("path", backup))
	}

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.catalog = persisted
	return nil
}

// Snapshot: копия каталога, которую можно менять без блокировки.
func (s *CatalogStore) Snapshot() storage.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Clone()
}

func (s *CatalogStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Names()
}

// GetTemplate ищет шаблон по имени, сначала точно, потом без учёта регистра.
func (s *CatalogStore) GetTemplate(ctx context.Context, name string) (storage.MachineTemplate, error) {
	const op = "storage.jsonfile.CatalogStore.GetTemplate"

	s.mu.RLock()
	defer s.mu.RUnlock()

	if tpl, ok := s.catalog[name]; ok {
		return tpl.Clone(), nil
	}

	want := strings.ToUpper(strings.TrimSpace(name))
	for key, tpl := range s.catalog {
		if strings.ToUpper(strings.TrimSpace(key)) == want {
			return tpl.Clone(), nil
		}
	}

	return storage.MachineTemplate{}, fmt.Errorf("%s: %q: %w", op, name, storage.ErrTemplateNotFound)
}

// SetTemplate заменяет шаблон и сохраняет каталог целиком.
func (s *CatalogStore) SetTemplate(ctx context.Context, tpl storage.MachineTemplate) error {
	const op = "storage.jsonfile.CatalogStore.SetTemplate"

	if strings.TrimSpace(tpl.Name) == "" {
		return fmt.Errorf("%s: empty template name", op)
	}

	next := s.Snapshot()
	next[tpl.Name] = tpl.Clone()

	if err := s.Save(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *CatalogStore) DeleteTemplate(ctx context.Context, name string) error {
	const op = "storage.jsonfile.CatalogStore.DeleteTemplate"

	next := s.Snapshot()
	if _, ok := next[name]; !ok {
		return fmt.Errorf("%s: %q: %w", op, name, storage.ErrTemplateNotFound)
	}
	delete(next, name)

	if err := s.Save(ctx, next); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Replace подменяет каталог целиком (например, после синхронизации).
func (s *CatalogStore) Replace(ctx context.Context, catalog storage.Catalog) error {
	const op = "storage.jsonfile.CatalogStore.Replace"

	if err := s.Save(ctx, catalog); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
