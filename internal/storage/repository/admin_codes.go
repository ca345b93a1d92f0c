package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ClaimAdminCode атомарно помечает неиспользованный код как использованный.
// Возвращает false, если кода нет или он уже использован.
func (s *Storage) ClaimAdminCode(ctx context.Context, code string, at time.Time) (bool, error) {
	const op = "storage.ClaimAdminCode"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE admin_codes SET used = TRUE, used_at = $2 WHERE code = $1 AND used = FALSE`, code, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// ReleaseAdminCode возвращает код в неиспользованное состояние, если регистрация не удалась.
func (s *Storage) ReleaseAdminCode(ctx context.Context, code string) error {
	const op = "storage.ReleaseAdminCode"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE admin_codes SET used = FALSE, used_at = NULL, used_by = NULL WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AssignAdminCode записывает, кем использован код.
func (s *Storage) AssignAdminCode(ctx context.Context, code string, userID uuid.UUID) error {
	const op = "storage.AssignAdminCode"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx, `UPDATE admin_codes SET used_by = $2 WHERE code = $1`, code, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
