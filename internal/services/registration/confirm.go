package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// ConfirmPayment фиксирует, что провайдер подтвердил оплату транзакции.
// Транзакция сразу переводится в completada, пользователь привяжется при создании
// учетной записи. Если отложенная регистрация еще есть, подтверждение дублируется в нее.
// Для транзакции с уже известным пользователем создается подписка.
func (s *Service) ConfirmPayment(ctx context.Context, transactionID, providerRef string) error {
	const op = "registration.ConfirmPayment"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("transaction_id", transactionID),
	)

	if _, err := s.completeAndSubscribe(ctx, log, transactionID, providerRef); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	reg, err := s.pending.Get(ctx, transactionID)
	if err != nil {
		log.Warn("failed to load pending registration", sl.Err(err))
		return nil
	}
	if reg == nil {
		return nil
	}
	reg.PaymentConfirmed = true
	reg.ProviderRef = providerRef
	if err := s.pending.Save(ctx, reg); err != nil {
		log.Warn("failed to mark pending registration as paid", sl.Err(err))
		return nil
	}
	log.Info("payment confirmed for pending registration")
	return nil
}

// CompleteFromWebhook обрабатывает успешную оплату из вебхука. Если отложенная
// регистрация еще на сервере, учетная запись создается здесь же.
func (s *Service) CompleteFromWebhook(ctx context.Context, transactionID, providerRef string) error {
	const op = "registration.CompleteFromWebhook"
	log := s.log.With(slog.String("op", op), slog.String("transaction_id", transactionID))

	tx, err := s.completeAndSubscribe(ctx, log, transactionID, providerRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tx.UserID != nil {
		return nil
	}

	reg, err := s.pending.Get(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if reg == nil {
		log.Info("no pending registration, account will be created on recovery")
		return nil
	}

	acc, err := s.Materialize(ctx, MaterializeRequest{TransactionID: transactionID, PaymentMethod: reg.PaymentMethod})
	switch {
	case errors.Is(err, ErrInProgress):
		log.Info("materialization already running on redirect path")
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("account materialized from webhook", slog.String("user_id", acc.UserID.String()))
	return nil
}

// FailFromWebhook переводит транзакцию в fallido, если она еще pendiente.
func (s *Service) FailFromWebhook(ctx context.Context, transactionID, providerRef string) error {
	const op = "registration.FailFromWebhook"
	ok, err := s.repo.FailTransaction(ctx, transactionID, providerRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		s.log.Info("transaction not pending, failure ignored", slog.String("op", op), slog.String("transaction_id", transactionID))
	}
	return nil
}

// completeAndSubscribe завершает транзакцию без пользователя либо с уже привязанным,
// и создает подписку, если пользователь известен.
func (s *Service) completeAndSubscribe(ctx context.Context, log *slog.Logger, transactionID, providerRef string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	if tx.Status == models.TransactionFailed {
		return nil, ErrPaymentFailed
	}

	if tx.Status == models.TransactionPending {
		if providerRef != "" && tx.ProviderRef != nil && *tx.ProviderRef != providerRef {
			return nil, ErrProviderRefMismatch
		}
		ok, err := s.repo.CompleteTransaction(ctx, transactionID, tx.UserID, providerRef, s.now())
		if err != nil {
			return nil, err
		}
		if ok {
			log.Info("transaction completed")
		}
		if tx, err = s.repo.GetTransaction(ctx, transactionID); err != nil {
			return nil, err
		}
	}

	if tx.UserID != nil {
		s.createSubscription(ctx, log, tx, *tx.UserID)
	}
	return tx, nil
}

// CancelNotice ответ страницы отмены оплаты.
type CancelNotice struct {
	Cancelled     bool   `json:"cancelled"`
	Method        string `json:"method"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// Cancel формирует уведомление об отмене. Состояние не меняется:
// транзакция остается pendiente, отложенная регистрация истекает по TTL.
func Cancel(method, transactionID string) CancelNotice {
	return CancelNotice{
		Cancelled:     true,
		Method:        method,
		TransactionID: transactionID,
		Message:       "El pago fue cancelado. No se realizó ningún cargo.",
	}
}
