// Package checkout создает заказы у платежных провайдеров и подтверждает оплату.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/watchhub/internal/lib/money"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/paypal"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

var (
	ErrMissingFields          = errors.New("Faltan datos requeridos")
	ErrProviderNotConfigured  = errors.New("payment provider not configured")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrTransactionNotPending  = errors.New("transaction is not pending")
	ErrAmountMismatch         = errors.New("amount does not match the transaction")
	ErrPlanMismatch           = errors.New("plan does not match the transaction")
	ErrMethodMismatch         = errors.New("payment method does not match the transaction")
	ErrOrderMismatch          = errors.New("payment does not belong to the transaction")
	ErrPlanNotFound           = errors.New("plan not found")
	ErrMissingApprovalLink    = errors.New("No se pudo generar enlace de pago PayPal")
	ErrPaymentNotSucceeded    = errors.New("El pago no fue exitoso")
	ErrMissingOrderID         = errors.New("orderId es requerido")
	ErrMissingPaymentIntentID = errors.New("Payment Intent ID es requerido")
)

// NotCompletedError capture вернул статус, отличный от COMPLETED.
type NotCompletedError struct {
	Status string
}

func (e *NotCompletedError) Error() string {
	return "Pago no completado. Estado: " + e.Status
}

// ProviderError провайдер отклонил запрос или недоступен.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Repository транзакции.
type Repository interface {
	CreatePendingTransaction(ctx context.Context, t *models.Transaction) (bool, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	SetTransactionProviderRef(ctx context.Context, id, providerRef string) error
}

// PlanSource каталог тарифов.
type PlanSource interface {
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
}

// PayPalAPI клиент PayPal Orders.
type PayPalAPI interface {
	CreateOrder(ctx context.Context, requestID string, order paypal.CreateOrderRequest) (*paypal.Order, error)
	CaptureOrder(ctx context.Context, requestID, orderID string) (*paypal.Order, error)
}

// StripeAPI клиент Stripe PaymentIntent.
type StripeAPI interface {
	CreatePaymentIntent(ctx context.Context, in stripe.IntentInput) (*stripe.Intent, error)
	GetPaymentIntent(ctx context.Context, id string) (*stripe.Intent, error)
}

// PaymentConfirmer записывает подтверждение оплаты для регистрации.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, transactionID, providerRef string) error
}

// Service оформление оплаты.
type Service struct {
	log       *slog.Logger
	repo      Repository
	plans     PlanSource
	paypal    PayPalAPI
	stripe    StripeAPI
	confirmer PaymentConfirmer
	baseURL   string
	brandName string
}

// Options внешние зависимости Service. Провайдер без клиента считается не настроенным.
type Options struct {
	PayPal        PayPalAPI
	Stripe        StripeAPI
	PublicBaseURL string
	BrandName     string
}

// New создает Service.
func New(log *slog.Logger, repo Repository, plans PlanSource, confirmer PaymentConfirmer, opts Options) *Service {
	brand := opts.BrandName
	if brand == "" {
		brand = "WatchHub Streaming"
	}
	return &Service{
		log:       log,
		repo:      repo,
		plans:     plans,
		paypal:    opts.PayPal,
		stripe:    opts.Stripe,
		confirmer: confirmer,
		baseURL:   opts.PublicBaseURL,
		brandName: brand,
	}
}

// OrderRequest данные для создания платежа.
type OrderRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PlanID        int             `json:"planId"`
	TransactionID string          `json:"transactionId"`
}

func (r OrderRequest) valid() bool {
	return r.Amount.IsPositive() && r.PlanID > 0 && r.TransactionID != ""
}

// ensurePending возвращает транзакцию pendiente для запроса. Если ее еще нет,
// она создается до обращения к провайдеру.
func (s *Service) ensurePending(ctx context.Context, req OrderRequest, method string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, req.TransactionID)
	if errors.Is(err, repository.ErrNotFound) {
		plan, perr := s.plans.GetPlan(ctx, req.PlanID)
		if errors.Is(perr, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		if perr != nil {
			return nil, fmt.Errorf("load plan: %w", perr)
		}
		if !money.Equal(plan.Price, req.Amount) {
			return nil, ErrAmountMismatch
		}
		if _, err := s.repo.CreatePendingTransaction(ctx, &models.Transaction{
			ID:             req.TransactionID,
			PlanID:         plan.ID,
			Amount:         plan.Price,
			PaymentMethod:  method,
			Status:         models.TransactionPending,
			IdempotencyKey: uuid.New(),
		}); err != nil {
			return nil, fmt.Errorf("create pending transaction: %w", err)
		}
		tx, err = s.repo.GetTransaction(ctx, req.TransactionID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transaction: %w", err)
	}

	switch {
	case !tx.IsPending():
		return nil, ErrTransactionNotPending
	case tx.PlanID != req.PlanID:
		return nil, ErrPlanMismatch
	case !money.Equal(tx.Amount, req.Amount):
		return nil, ErrAmountMismatch
	case tx.PaymentMethod != method:
		return nil, ErrMethodMismatch
	}
	return tx, nil
}

func observe(provider, call string, start time.Time) {
	metrics.ObserveProviderCall(provider, call, time.Since(start).Seconds())
}
