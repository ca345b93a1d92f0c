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

const transactionColumns = `id, user_id, plan_id, amount, payment_method, status, provider_ref,
	idempotency_key, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t           models.Transaction
		userID      uuid.NullUUID
		providerRef sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(&t.ID, &userID, &t.PlanID, &t.Amount, &t.PaymentMethod, &t.Status,
		&providerRef, &t.IdempotencyKey, &t.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	if userID.Valid {
		t.UserID = &userID.UUID
	}
	if providerRef.Valid {
		t.ProviderRef = &providerRef.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

// CreatePendingTransaction вставляет транзакцию в статусе pendiente.
// Если транзакция с таким идентификатором уже есть, ничего не меняет и возвращает false.
func (s *Storage) CreatePendingTransaction(ctx context.Context, t *models.Transaction) (bool, error) {
	const op = "storage.CreatePendingTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`INSERT INTO transactions (id, plan_id, amount, payment_method, status, idempotency_key)
		 VALUES ($1, $2, $3, $4, 'pendiente', $5)
		 ON CONFLICT (id) DO NOTHING`,
		t.ID, t.PlanID, t.Amount, t.PaymentMethod, t.IdempotencyKey)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// GetTransaction возвращает транзакцию по корреляционному идентификатору.
func (s *Storage) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	const op = "storage.GetTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// SetTransactionProviderRef сохраняет ссылку платежного провайдера, пока транзакция ожидает оплаты.
func (s *Storage) SetTransactionProviderRef(ctx context.Context, id, providerRef string) error {
	const op = "storage.SetTransactionProviderRef"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE transactions SET provider_ref = $2 WHERE id = $1 AND status = 'pendiente'`,
		id, providerRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CompleteTransaction переводит транзакцию pendiente -> completada.
// Возвращает false, если транзакция уже не в статусе pendiente: выигрывает первый из конкурирующих путей.
func (s *Storage) CompleteTransaction(ctx context.Context, id string, userID *uuid.UUID, providerRef string, at time.Time) (bool, error) {
	const op = "storage.CompleteTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var user uuid.NullUUID
	if userID != nil {
		user = uuid.NullUUID{UUID: *userID, Valid: true}
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions
		 SET status = 'completada',
		     user_id = COALESCE($2, user_id),
		     provider_ref = COALESCE(NULLIF($3, ''), provider_ref),
		     completed_at = $4
		 WHERE id = $1 AND status = 'pendiente'`,
		id, user, providerRef, at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// FailTransaction переводит транзакцию pendiente -> fallido.
func (s *Storage) FailTransaction(ctx context.Context, id, providerRef string) (bool, error) {
	const op = "storage.FailTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions
		 SET status = 'fallido', provider_ref = COALESCE(NULLIF($2, ''), provider_ref)
		 WHERE id = $1 AND status = 'pendiente'`,
		id, providerRef)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// AttachTransactionUser привязывает пользователя к транзакции, у которой его еще нет.
func (s *Storage) AttachTransactionUser(ctx context.Context, id string, userID uuid.UUID) (bool, error) {
	const op = "storage.AttachTransactionUser"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE transactions SET user_id = $2 WHERE id = $1 AND user_id IS NULL`, id, userID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// ListTransactionsByUser возвращает историю транзакций пользователя, новые первыми.
func (s *Storage) ListTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	const op = "storage.ListTransactionsByUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
