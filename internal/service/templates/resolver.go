package templates

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrModelRequired = errors.New("model is required")

	docxSuffix    = regexp.MustCompile(`(?i)\.docx$`)
	spaces        = regexp.MustCompile(`\s+`)
	modelPattern  = regexp.MustCompile(`^(CM|TS)[A-Z0-9]+$`)
	excludedStems = map[string]bool{"COTIZACION MATERIALS": true, "COTIZACIONMATERIALS": true}
)

const MaterialsTemplate = "COTIZACION MATERIALS.docx"

// ModelNotAvailableError означает, что модели нет среди шаблонов. Available содержит не больше 10 имён.
type ModelNotAvailableError struct {
	Model     string
	Available []string
}

func (e *ModelNotAvailableError) Error() string {
	return fmt.Sprintf("Modelo/plantilla no disponible: %s. Disponibles: %s", e.Model, strings.Join(e.Available, ", "))
}

// NormalizeModel: " cm780.DOCX " -> "CM780".
func NormalizeModel(value string) string {
	v := strings.TrimSpace(value)
	v = docxSuffix.ReplaceAllString(v, "")
	v = spaces.ReplaceAllString(v, "")
	return strings.ToUpper(v)
}

type Resolver struct {
	dir string
}

func NewResolver(dir string) *Resolver {
	return &Resolver{dir: dir}
}

func (r *Resolver) scan() map[string]string {
	out := map[string]string{}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return out
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".docx") {
			continue
		}
		stem := NormalizeModel(e.Name())
		if stem == "" || excludedStems[stem] || !modelPattern.MatchString(stem) {
			continue
		}
		out[stem] = filepath.Join(r.dir, e.Name())
	}
	return out
}

// List: доступные модели по алфавиту; limit <= 0 означает без ограничения.
func (r *Resolver) List(limit int) []string {
	found := r.scan()
	models := make([]string, 0, len(found))
	for m := range found {
		models = append(models, m)
	}
	sort.Strings(models)

	if limit > 0 && len(models) > limit {
		return models[:limit]
	}
	return models
}

func (r *Resolver) Resolve(model string) (string, error) {
	normalized := NormalizeModel(model)
	if normalized == "" {
		return "", ErrModelRequired
	}

	if path, ok := r.scan()[normalized]; ok {
		return path, nil
	}

	return "", &ModelNotAvailableError{Model: normalized, Available: r.List(10)}
}

// ResolveFile ищет произвольный шаблон по имени файла без учёта регистра.
func (r *Resolver) ResolveFile(name string) (string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", fmt.Errorf("templates.ResolveFile: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(e.Name(), name) {
			return filepath.Join(r.dir, e.Name()), nil
		}
	}
	return "", &ModelNotAvailableError{Model: name, Available: r.List(10)}
}
