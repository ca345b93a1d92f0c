package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

// CreateIdentity создает учетную запись и возвращает ее идентификатор.
func (s *Storage) CreateIdentity(ctx context.Context, email, passwordHash string) (uuid.UUID, error) {
	const op = "storage.CreateIdentity"
	if err := checkCtx(ctx, op); err != nil {
		return uuid.Nil, err
	}

	var id uuid.UUID
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO identities (email, password_hash) VALUES ($1, $2) RETURNING id`,
		strings.ToLower(email), passwordHash).Scan(&id)
	if err != nil {
		if isUniqueViolation(err, "identities_email_key") {
			return uuid.Nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// DeleteIdentity удаляет учетную запись. Профиль удаляется каскадно.
func (s *Storage) DeleteIdentity(ctx context.Context, id uuid.UUID) error {
	const op = "storage.DeleteIdentity"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM identities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// GetIdentityByEmail ищет учетную запись по почте.
func (s *Storage) GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	const op = "storage.GetIdentityByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var identity models.Identity
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE email = $1`,
		strings.ToLower(email)).Scan(&identity.ID, &identity.Email, &identity.PasswordHash, &identity.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &identity, nil
}

// EmailExists проверяет, занята ли почта.
func (s *Storage) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.EmailExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM identities WHERE email = $1)`, strings.ToLower(email)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
