package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/watchhub/internal/lib/money"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// StripeIntent данные для подтверждения оплаты на клиенте.
type StripeIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

// StripeConfirmation результат проверки PaymentIntent.
type StripeConfirmation struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Message       string `json:"message"`
}

// CreateStripeIntent создает PaymentIntent в центах для транзакции pendiente.
func (s *Service) CreateStripeIntent(ctx context.Context, req OrderRequest) (*StripeIntent, error) {
	const op = "checkout.CreateStripeIntent"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("transaction_id", req.TransactionID),
	)

	if !req.valid() {
		return nil, ErrMissingFields
	}
	if s.stripe == nil {
		return nil, ErrProviderNotConfigured
	}

	tx, err := s.ensurePending(ctx, req, models.MethodStripe)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	intent, err := s.stripe.CreatePaymentIntent(ctx, stripe.IntentInput{
		AmountCents:    money.ToCents(tx.Amount),
		PlanID:         tx.PlanID,
		TransactionID:  tx.ID,
		IdempotencyKey: tx.IdempotencyKey.String(),
	})
	observe(models.MethodStripe, "create_intent", start)
	if err != nil {
		metrics.IncPayment(models.MethodStripe, "error")
		log.Error("stripe create intent failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, stripeErr(err))
	}

	if err := s.repo.SetTransactionProviderRef(ctx, tx.ID, intent.ID); err != nil {
		log.Error("failed to store payment intent id", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.IncPayment(models.MethodStripe, "created")
	log.Info("stripe payment intent created", slog.String("payment_intent_id", intent.ID))

	return &StripeIntent{ClientSecret: intent.ClientSecret, PaymentIntentID: intent.ID}, nil
}

// ConfirmStripePayment проверяет, что PaymentIntent оплачен, и записывает подтверждение
// для транзакции из его metadata.
func (s *Service) ConfirmStripePayment(ctx context.Context, paymentIntentID string) (*StripeConfirmation, error) {
	const op = "checkout.ConfirmStripePayment"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("payment_intent_id", paymentIntentID),
	)

	if paymentIntentID == "" {
		return nil, ErrMissingPaymentIntentID
	}
	if s.stripe == nil {
		return nil, ErrProviderNotConfigured
	}

	start := time.Now()
	intent, err := s.stripe.GetPaymentIntent(ctx, paymentIntentID)
	observe(models.MethodStripe, "get_intent", start)
	if err != nil {
		metrics.IncPayment(models.MethodStripe, "error")
		log.Error("stripe get intent failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, stripeErr(err))
	}
	if intent.Status != stripe.StatusSucceeded {
		metrics.IncPayment(models.MethodStripe, "declined")
		log.Warn("stripe payment not succeeded", slog.String("status", intent.Status))
		return nil, ErrPaymentNotSucceeded
	}
	if intent.TransactionID == "" {
		log.Error("payment intent without transaction metadata")
		return nil, ErrTransactionNotFound
	}
	log = log.With(slog.String("transaction_id", intent.TransactionID))
	if err := s.checkStripeTransaction(ctx, intent); err != nil {
		metrics.IncPayment(models.MethodStripe, "mismatch")
		log.Error("payment intent does not match transaction", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.IncPayment(models.MethodStripe, "captured")

	if s.confirmer != nil {
		if err := s.confirmer.ConfirmPayment(ctx, intent.TransactionID, intent.ID); err != nil {
			log.Error("failed to record payment confirmation", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	log.Info("stripe payment confirmed")

	return &StripeConfirmation{
		Success:       true,
		TransactionID: intent.TransactionID,
		Message:       "Pago procesado exitosamente",
	}, nil
}

// checkStripeTransaction сверяет оплаченный PaymentIntent с транзакцией из его metadata.
func (s *Service) checkStripeTransaction(ctx context.Context, intent *stripe.Intent) error {
	tx, err := s.repo.GetTransaction(ctx, intent.TransactionID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTransactionNotFound
	case err != nil:
		return err
	}
	switch {
	case tx.PaymentMethod != models.MethodStripe:
		return ErrMethodMismatch
	case tx.ProviderRef == nil || *tx.ProviderRef != intent.ID:
		return ErrOrderMismatch
	case !money.Equal(money.FromCents(intent.AmountCents), tx.Amount):
		return ErrAmountMismatch
	}
	return nil
}

func stripeErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := err.Error()
	var apiErr *stripe.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	return &ProviderError{Provider: models.MethodStripe, Message: msg, Err: err}
}
