package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/buzznet/internal/models"
)

const userColumns = `uid, email, username, password_hash, role,
	login_attempts, lock_until, created_at, updated_at`

// RegisterUser сохраняет нового пользователя и возвращает запись с
// присвоенным uid и отметками времени.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.RegisterUser"

	query := `INSERT INTO users (email, username, password_hash, role)
			  VALUES ($1, $2, $3, $4)
			  RETURNING ` + userColumns
	created, err := scanUser(s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по uid.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"

	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// RegisterFailedLogin атомарно увеличивает счётчик неудачных входов.
//
// Если счётчик достиг maxAttempts, тем же запросом выставляется
// lock_until = now + lockFor. Истёкшая блокировка снимается, и отсчёт
// начинается заново с 1. Возвращает значения после обновления.
func (s *Storage) RegisterFailedLogin(ctx context.Context, userUID string, now time.Time,
	maxAttempts int, lockFor time.Duration) (int, *time.Time, error) {
	const op = "storage.RegisterFailedLogin"

	query := `UPDATE users
			  SET login_attempts = CASE
			          WHEN lock_until IS NOT NULL AND lock_until <= $2::timestamptz THEN 1
			          ELSE login_attempts + 1
			      END,
			      lock_until = CASE
			          WHEN lock_until IS NOT NULL AND lock_until <= $2::timestamptz THEN NULL
			          WHEN lock_until IS NULL AND login_attempts + 1 >= $3 THEN $4::timestamptz
			          ELSE lock_until
			      END,
			      updated_at = NOW()
			  WHERE uid = $1
			  RETURNING login_attempts, lock_until`

	var attempts int
	var lockUntil sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID, now, maxAttempts, now.Add(lockFor)).
		Scan(&attempts, &lockUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !lockUntil.Valid {
		return attempts, nil, nil
	}
	return attempts, &lockUntil.Time, nil
}

// ResetLoginAttempts обнуляет счётчик и снимает блокировку после успешного входа.
func (s *Storage) ResetLoginAttempts(ctx context.Context, userUID string) error {
	const op = "storage.ResetLoginAttempts"

	query := `UPDATE users
			  SET login_attempts = 0, lock_until = NULL
			  WHERE uid = $1 AND (login_attempts <> 0 OR lock_until IS NOT NULL)`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var lockUntil sql.NullTime
	err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.LoginAttempts, &lockUntil, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if lockUntil.Valid {
		u.LockUntil = &lockUntil.Time
	}
	return u, nil
}
