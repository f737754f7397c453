package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cotizador/internal/storage"

	"github.com/go-sql-driver/mysql"
)

var ErrUserExists = errors.New("user already exists")

const errDuplicateEntry = 1062

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	const op = "storage.mysql.GetUserByUsername"

	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, license_key, active, created_at
		FROM users
		WHERE username = ?
	`, username)

	u := &storage.User{}
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.LicenseKey, &u.Active, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка получения пользователя %s: %w", op, username, err)
	}

	return u, nil
}

func (s *Storage) CreateUser(ctx context.Context, u storage.User) (int64, error) {
	const op = "storage.mysql.CreateUser"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, license_key, active)
		VALUES (?, ?, ?, ?)
	`, u.Username, u.PasswordHash, u.LicenseKey, u.Active)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == errDuplicateEntry {
			return 0, ErrUserExists
		}
		return 0, fmt.Errorf("%s: ошибка создания пользователя: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.mysql.CountUsers"

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return n, nil
}
