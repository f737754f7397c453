package mysql

import (
	"context"
	"fmt"

	"cotizador/internal/storage"
)

// SaveQuote записывает котировку; существующая с тем же id заменяется.
func (s *Storage) SaveQuote(ctx context.Context, q storage.Quote) error {
	const op = "storage.mysql.SaveQuote"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: не удалось начать транзакцию: %w", op, err)
	}

	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		REPLACE INTO quotes (id, kind, payload, client, template, total, currency, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("%s: не удалось подготовить запрос: %w", op, err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx, q.ID, q.Kind, q.Payload, q.Client, q.Template, q.Total, q.Currency, q.CreatedBy, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: ошибка сохранения котировки id=%s: %w", op, q.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: ошибка коммита транзакции: %w", op, err)
	}

	return nil
}

func (s *Storage) ListQuotes(ctx context.Context, kind string) ([]storage.Quote, error) {
	const op = "storage.mysql.ListQuotes"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, payload, client, template, total, currency, created_by, created_at
		FROM quotes
		WHERE kind = ?
		ORDER BY created_at DESC
	`, kind)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения котировок: %w", op, err)
	}
	defer rows.Close()

	quotes := []storage.Quote{}

	for rows.Next() {
		var q storage.Quote
		err := rows.Scan(&q.ID, &q.Kind, &q.Payload, &q.Client, &q.Template, &q.Total, &q.Currency, &q.CreatedBy, &q.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		quotes = append(quotes, q)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return quotes, nil
}

func (s *Storage) DeleteQuote(ctx context.Context, kind, id string) error {
	const op = "storage.mysql.DeleteQuote"

	res, err := s.db.ExecContext(ctx, `DELETE FROM quotes WHERE id = ? AND kind = ?`, id, kind)
	if err != nil {
		return fmt.Errorf("%s: ошибка удаления котировки id=%s: %w", op, id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return storage.ErrQuoteNotFound
	}

	return nil
}

// QuoteMetrics: количество и сумма котировок по видам.
func (s *Storage) QuoteMetrics(ctx context.Context) ([]storage.QuoteMetrics, error) {
	const op = "storage.mysql.QuoteMetrics"

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*), COALESCE(SUM(total), 0)
		FROM quotes
		GROUP BY kind
		ORDER BY kind
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения метрик: %w", op, err)
	}
	defer rows.Close()

	metrics := []storage.QuoteMetrics{}

	for rows.Next() {
		var m storage.QuoteMetrics
		if err := rows.Scan(&m.Kind, &m.Count, &m.Amount); err != nil {
			return nil, fmt.Errorf("%s: ошибка сканирования строки: %w", op, err)
		}
		metrics = append(metrics, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: ошибка при итерации по строкам: %w", op, err)
	}

	return metrics, nil
}
