package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"cotizador/internal/storage"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// HistoryStore: журнал сгенерированных котировок, по файлу на каждый kind.
type HistoryStore struct {
	dir     string
	docsDir string
	now     func() time.Time

	mu sync.Mutex
}

func NewHistoryStore(dir, docsDir string) *HistoryStore {
	return &HistoryStore{dir: dir, docsDir: docsDir, now: time.Now}
}

func (s *HistoryStore) path(kind string) string {
	return filepath.Join(s.dir, fmt.Sprintf("historial_%s.json", kind))
}

func (s *HistoryStore) read(kind string) ([]storage.HistoryRecord, error) {
	raw, err := os.ReadFile(s.path(kind))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []storage.HistoryRecord{}, nil
		}
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return []storage.HistoryRecord{}, nil
	}

	var rows []storage.HistoryRecord
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *HistoryStore) write(kind string, rows []storage.HistoryRecord) error {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(s.path(kind), data)
}

// Append добавляет запись и копирует сгенерированные файлы в каталог истории.
func (s *HistoryStore) Append(ctx context.Context, rec storage.HistoryRecord) (storage.HistoryRecord, error) {
	const op = "storage.jsonfile.HistoryStore.Append"

	if !storage.ValidKind(rec.Kind) {
		return storage.HistoryRecord{}, fmt.Errorf("%s: unknown kind %q", op, rec.Kind)
	}
	if rec.ID == "" {
		rec.ID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if rec.Date.IsZero() {
		rec.Date = s.now()
	}

	rec.Docx, rec.PDF = s.storeFiles(rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(rec.Kind)
	if err != nil {
		return storage.HistoryRecord{}, fmt.Errorf("%s: read: %w", op, err)
	}

	rows = append(rows, rec)
	if err := s.write(rec.Kind, rows); err != nil {
		return storage.HistoryRecord{}, fmt.Errorf("%s: write: %w", op, err)
	}

	return rec, nil
}

// storeFiles возвращает пути копий, или исходные пути, если копирование не удалось.
func (s *HistoryStore) storeFiles(rec storage.HistoryRecord) (string, string) {
	if s.docsDir == "" {
		return rec.Docx, rec.PDF
	}

	source := rec.Docx
	if source == "" {
		source = rec.PDF
	}
	if source == "" {
		return rec.Docx, rec.PDF
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	base = unsafeFileChars.ReplaceAllString(base, "_")
	stamp := rec.Date.Format("20060102_150405")
	dir := filepath.Join(s.docsDir, rec.Kind)

	docx, pdf := rec.Docx, rec.PDF
	if rec.Docx != "" {
		dst := filepath.Join(dir, fmt.Sprintf("%s__%s.docx", base, stamp))
		if err := copyFile(rec.Docx, dst); err == nil {
			docx = dst
		}
	}
	if rec.PDF != "" {
		dst := filepath.Join(dir, fmt.Sprintf("%s__%s.pdf", base, stamp))
		if err := copyFile(rec.PDF, dst); err == nil {
			pdf = dst
		}
	}
	return docx, pdf
}

// List: записи kind, новые первыми.
func (s *HistoryStore) List(ctx context.Context, kind string) ([]storage.HistoryRecord, error) {
	const op = "storage.jsonfile.HistoryStore.List"

	if !storage.ValidKind(kind) {
		return nil, fmt.Errorf("%s: unknown kind %q", op, kind)
	}

	s.mu.Lock()
	rows, err := s.read(kind)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	for i := range rows {
		if rows[i].Kind == "" {
			rows[i].Kind = kind
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].TotalNumeric.GreaterThan(rows[j].TotalNumeric)
	})

	return rows, nil
}

func (s *HistoryStore) Delete(ctx context.Context, kind, id string) error {
	const op = "storage.jsonfile.HistoryStore.Delete"

	if !storage.ValidKind(kind) {
		return fmt.Errorf("%s: unknown kind %q", op, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.read(kind)
	if err != nil {
		return fmt.Errorf("%s: read: %w", op, err)
	}

	kept := rows[:0]
	found := false
	for _, r := range rows {
		if r.ID == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("%s: id=%s: %w", op, id, storage.ErrHistoryNotFound)
	}

	if err := s.write(kind, kept); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	return nil
}

// Summary: количество записей и сумма по каждому kind.
func (s *HistoryStore) Summary(ctx context.Context) ([]storage.HistorySummary, error) {
	const op = "storage.jsonfile.HistoryStore.Summary"

	var out []storage.HistorySummary
	for _, kind := range []string{storage.KindPackaging, storage.KindMaterials} {
		rows, err := s.List(ctx, kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sum := storage.HistorySummary{Kind: kind, Count: len(rows), Amount: decimal.Zero}
		for _, r := range rows {
			sum.Amount = sum.Amount.Add(r.TotalNumeric)
		}
		out = append(out, sum)
	}
	return out, nil
}
