package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

// CreateProfile создает профиль для существующей учетной записи.
func (s *Storage) CreateProfile(ctx context.Context, p *models.Profile) error {
	const op = "storage.CreateProfile"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	var planID sql.NullInt64
	if p.PlanID != nil {
		planID = sql.NullInt64{Int64: int64(*p.PlanID), Valid: true}
	}
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO profiles (id, name, handle, email, role, plan_id)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`,
		p.ID, p.Name, p.Handle, p.Email, p.Role, planID).Scan(&p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "profiles_handle_key") {
			return fmt.Errorf("%s: %w", op, ErrHandleTaken)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetProfile возвращает профиль по идентификатору пользователя.
func (s *Storage) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	const op = "storage.GetProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		p      models.Profile
		planID sql.NullInt64
	)
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, name, handle, email, role, plan_id, reproductions_used, created_at
		 FROM profiles WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Handle, &p.Email, &p.Role, &planID, &p.ReproductionsUsed, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if planID.Valid {
		v := int(planID.Int64)
		p.PlanID = &v
	}
	return &p, nil
}

// HandleExists проверяет, занято ли имя пользователя.
func (s *Storage) HandleExists(ctx context.Context, handle string) (bool, error) {
	const op = "storage.HandleExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE handle = $1)`, handle).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ConsumeReproduction атомарно увеличивает счетчик воспроизведений, пока он ниже лимита тарифа.
// Возвращает новое значение счетчика и лимит.
func (s *Storage) ConsumeReproduction(ctx context.Context, userID uuid.UUID) (int, int, error) {
	const op = "storage.ConsumeReproduction"
	if err := checkCtx(ctx, op); err != nil {
		return 0, 0, err
	}

	var used, limit int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE profiles p
		 SET reproductions_used = p.reproductions_used + 1
		 FROM plans pl
		 WHERE p.id = $1 AND pl.id = p.plan_id AND p.reproductions_used < pl.max_reproductions
		 RETURNING p.reproductions_used, pl.max_reproductions`, userID).Scan(&used, &limit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("%s: %w", op, ErrReproductionLimit)
		}
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return used, limit, nil
}
