package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

// CreateSubscription создает подписку по транзакции.
// Повторный вызов для той же транзакции ничего не создает и возвращает false.
func (s *Storage) CreateSubscription(ctx context.Context, sub *models.Subscription) (bool, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, plan_id, transaction_id, status, start_at, end_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (transaction_id) DO NOTHING
		 RETURNING id`,
		sub.UserID, sub.PlanID, sub.TransactionID, sub.Status, sub.StartAt, sub.EndAt).Scan(&sub.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// GetActiveSubscription возвращает последнюю действующую подписку пользователя.
func (s *Storage) GetActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error) {
	const op = "storage.GetActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var sub models.Subscription
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, user_id, plan_id, transaction_id, status, start_at, end_at
		 FROM subscriptions
		 WHERE user_id = $1 AND status = 'activa' AND end_at > $2
		 ORDER BY start_at DESC
		 LIMIT 1`, userID, now).
		Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.TransactionID, &sub.Status, &sub.StartAt, &sub.EndAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// ExpireSubscriptions переводит просроченные активные подписки в статус vencida.
func (s *Storage) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	const op = "storage.ExpireSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'vencida' WHERE status = 'activa' AND end_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// FindSubscriptionsExpiringBetween возвращает активные подписки, заканчивающиеся в интервале [from, to).
func (s *Storage) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscription, error) {
	const op = "storage.FindSubscriptionsExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT p.email, p.name, pl.name, s.end_at
		 FROM subscriptions s
		 JOIN profiles p ON p.id = s.user_id
		 JOIN plans pl ON pl.id = s.plan_id
		 WHERE s.status = 'activa' AND s.end_at >= $1 AND s.end_at < $2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ExpiringSubscription
	for rows.Next() {
		var e models.ExpiringSubscription
		if err := rows.Scan(&e.Email, &e.Name, &e.PlanName, &e.EndAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
