package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrTemplateNotFound = errors.New("docx template not found")

	partPattern        = regexp.MustCompile(`^word/[^/]+\.xml$`)
	tagPattern         = regexp.MustCompile(`<[^>]+>`)
	placeholderPattern = regexp.MustCompile(`\{\{[^{}]+\}\}`)
)

// gap совпадает с тем, что Word вставляет между символами плейсхолдера: пробелы и теги runs.
const gap = `(?:\s|<[^>]+>)*`

type Filler struct{}

func NewFiller() *Filler {
	return &Filler{}
}

// Fill копирует шаблон src в dst, подставляя values в плейсхолдеры {{key}}.
func (f *Filler) Fill(src, dst string, values map[string]string) error {
	const op = "service.docx.Fill"

	zr, err := zip.OpenReader(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %s: %w", op, src, ErrTemplateNotFound)
		}
		return fmt.Errorf("%s: open %s: %w", op, src, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("%s: mkdir: %w", op, err)
	}

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%s: create: %w", op, err)
	}

	if err := rewrite(&zr.Reader, out, values); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: close: %w", op, err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%s: rename: %w", op, err)
	}
	return nil
}

func rewrite(zr *zip.Reader, w io.Writer, values map[string]string) error {
	zw := zip.NewWriter(w)

	keys := sortedKeys(values)
	escaped := make(map[string]string, len(values))
	for k, v := range values {
		escaped[k] = escape(v)
	}

	for _, file := range zr.File {
		if !partPattern.MatchString(file.Name) {
			if err := zw.Copy(file); err != nil {
				return fmt.Errorf("copy %s: %w", file.Name, err)
			}
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", file.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", file.Name, err)
		}

		body = []byte(replaceAll(string(body), keys, escaped))

		part, err := zw.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", file.Name, err)
		}
		if _, err := part.Write(body); err != nil {
			return fmt.Errorf("write %s: %w", file.Name, err)
		}
	}

	return zw.Close()
}

// anyPlaceholder находит {{...}} целиком, в том числе разбитый Word на несколько runs.
var anyPlaceholder = regexp.MustCompile(`\{` + gap + `\{((?:[^{}<]|<[^>]+>)+?)\}` + gap + `\}`)

// placeholderKey: имя без тегов, пробелов и регистра, по нему сравниваются ключи.
func placeholderKey(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// replaceAll проходит документ один раз: подставленные значения повторно не разбираются.
// Неизвестный плейсхолдер остаётся как есть.
func replaceAll(body string, keys []string, values map[string]string) string {
	if !strings.Contains(body, "{") {
		return body
	}

	byKey := make(map[string]string, len(keys))
	for _, k := range keys {
		nk := placeholderKey(k)
		if nk == "" {
			continue
		}
		if _, ok := byKey[nk]; !ok {
			byKey[nk] = values[k]
		}
	}

	return anyPlaceholder.ReplaceAllStringFunc(body, func(m string) string {
		inner := anyPlaceholder.FindStringSubmatch(m)[1]
		if v, ok := values[inner]; ok {
			return v
		}
		if v, ok := byKey[placeholderKey(inner)]; ok {
			return v
		}
		return m
	})
}

// длинные ключи первыми, чтобы "concepto1" не задел "concepto10"
func sortedKeys(values map[string]string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

func escape(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// Placeholders: уникальные имена плейсхолдеров документа без скобок, по алфавиту.
func (f *Filler) Placeholders(src string) ([]string, error) {
	const op = "service.docx.Placeholders"

	zr, err := zip.OpenReader(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %s: %w", op, src, ErrTemplateNotFound)
		}
		return nil, fmt.Errorf("%s: open: %w", op, err)
	}
	defer zr.Close()

	seen := map[string]bool{}
	for _, file := range zr.File {
		if !partPattern.MatchString(file.Name) {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: open %s: %w", op, file.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: read %s: %w", op, file.Name, err)
		}

		text := tagPattern.ReplaceAllString(string(body), "")
		for _, m := range placeholderPattern.FindAllString(text, -1) {
			name := strings.TrimSpace(m[2 : len(m)-2])
			if name != "" {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}
