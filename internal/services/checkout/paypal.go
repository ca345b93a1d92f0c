package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/watchhub/internal/lib/money"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/paypal"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// PayPalOrder результат создания заказа.
type PayPalOrder struct {
	OrderID     string        `json:"orderId"`
	ApprovalURL string        `json:"approvalUrl"`
	Links       []paypal.Link `json:"links"`
	Status      string        `json:"status"`
	Success     bool          `json:"success"`
}

// Capture результат списания по заказу PayPal.
type Capture struct {
	Success       bool   `json:"success"`
	PaymentID     string `json:"paymentId"`
	Status        string `json:"status"`
	TransactionID string `json:"transactionId,omitempty"`
}

// RedirectURL адрес страницы возврата от провайдера.
func RedirectURL(base, page, method, transactionID string) string {
	q := url.Values{}
	q.Set("method", method)
	q.Set("transaction", transactionID)
	return base + "/api/v1/pago/" + page + "?" + q.Encode()
}

func (s *Service) orderRequest(tx *models.Transaction) paypal.CreateOrderRequest {
	plan := strconv.Itoa(tx.PlanID)
	return paypal.CreateOrderRequest{
		Intent: "CAPTURE",
		ApplicationContext: paypal.ApplicationContext{
			BrandName:   s.brandName,
			LandingPage: "BILLING",
			UserAction:  "PAY_NOW",
			ReturnURL:   RedirectURL(s.baseURL, "success", models.MethodPayPal, tx.ID),
			CancelURL:   RedirectURL(s.baseURL, "cancel", models.MethodPayPal, tx.ID),
		},
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: tx.ID,
			Amount: paypal.Amount{
				CurrencyCode: money.Currency,
				Value:        money.Format(tx.Amount),
			},
			Description: "Suscripción WatchHub - Plan " + plan,
			CustomID:    "plan_" + plan + "_transaction_" + tx.ID,
		}},
	}
}

// CreatePayPalOrder создает заказ PayPal для транзакции pendiente.
// Транзакция существует до обращения к PayPal, id заказа сохраняется как provider_ref.
func (s *Service) CreatePayPalOrder(ctx context.Context, req OrderRequest) (*PayPalOrder, error) {
	const op = "checkout.CreatePayPalOrder"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("transaction_id", req.TransactionID),
	)

	if !req.valid() {
		return nil, ErrMissingFields
	}
	if s.paypal == nil {
		return nil, ErrProviderNotConfigured
	}

	tx, err := s.ensurePending(ctx, req, models.MethodPayPal)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	start := time.Now()
	order, err := s.paypal.CreateOrder(ctx, tx.IdempotencyKey.String(), s.orderRequest(tx))
	observe(models.MethodPayPal, "create_order", start)
	if err != nil {
		metrics.IncPayment(models.MethodPayPal, "error")
		log.Error("paypal create order failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, providerErr(models.MethodPayPal, err))
	}

	approval, ok := order.ApprovalURL()
	if !ok {
		metrics.IncPayment(models.MethodPayPal, "error")
		log.Error("paypal order without approve link", slog.String("order_id", order.ID))
		return nil, ErrMissingApprovalLink
	}

	if err := s.repo.SetTransactionProviderRef(ctx, tx.ID, order.ID); err != nil {
		log.Error("failed to store order id", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	metrics.IncPayment(models.MethodPayPal, "created")
	log.Info("paypal order created", slog.String("order_id", order.ID))

	return &PayPalOrder{
		OrderID:     order.ID,
		ApprovalURL: approval,
		Links:       order.Links,
		Status:      order.Status,
		Success:     true,
	}, nil
}

// CapturePayPalOrder списывает оплату по одобренному заказу. Только статус COMPLETED
// засчитывается как оплата, любой другой возвращает NotCompletedError без изменения состояния.
// Заказ должен принадлежать транзакции: тот же provider_ref, reference_id и сумма.
func (s *Service) CapturePayPalOrder(ctx context.Context, orderID, transactionID string) (*Capture, error) {
	const op = "checkout.CapturePayPalOrder"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("order_id", orderID),
	)

	if orderID == "" {
		return nil, ErrMissingOrderID
	}
	if s.paypal == nil {
		return nil, ErrProviderNotConfigured
	}

	var tx *models.Transaction
	requestID := orderID + "-capture"
	if transactionID != "" {
		var err error
		if tx, err = s.paypalTransaction(ctx, transactionID, orderID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !tx.IsPending() {
			if tx.Status == models.TransactionCompleted {
				log.Info("order already captured", slog.String("transaction_id", tx.ID))
				return captured(orderID, tx.ID), nil
			}
			return nil, ErrTransactionNotPending
		}
		requestID = tx.IdempotencyKey.String() + "-capture"
	}

	start := time.Now()
	order, err := s.paypal.CaptureOrder(ctx, requestID, orderID)
	observe(models.MethodPayPal, "capture_order", start)
	if err != nil {
		metrics.IncPayment(models.MethodPayPal, "error")
		log.Error("paypal capture failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, providerErr(models.MethodPayPal, err))
	}
	if order.Status != paypal.StatusCompleted {
		metrics.IncPayment(models.MethodPayPal, "declined")
		log.Warn("paypal capture not completed", slog.String("status", order.Status))
		return nil, &NotCompletedError{Status: order.Status}
	}
	metrics.IncPayment(models.MethodPayPal, "captured")

	ref := order.ReferenceID()
	if transactionID == "" {
		transactionID = ref
	}
	if transactionID == "" {
		log.Warn("captured order without transaction reference")
		return captured(order.ID, ""), nil
	}
	log = log.With(slog.String("transaction_id", transactionID))

	if ref != "" && ref != transactionID {
		metrics.IncPayment(models.MethodPayPal, "mismatch")
		log.Error("captured order belongs to another transaction", slog.String("reference_id", ref))
		return nil, ErrOrderMismatch
	}
	if tx == nil {
		if tx, err = s.paypalTransaction(ctx, transactionID, orderID); err != nil {
			log.Error("captured order does not match transaction", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	if err := checkCapturedAmount(order, tx); err != nil {
		metrics.IncPayment(models.MethodPayPal, "mismatch")
		log.Error("captured amount differs from transaction", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.confirmer != nil {
		if err := s.confirmer.ConfirmPayment(ctx, transactionID, order.ID); err != nil {
			log.Error("failed to record payment confirmation", sl.Err(err))
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	log.Info("paypal order captured")

	return captured(order.ID, transactionID), nil
}

// paypalTransaction загружает транзакцию и проверяет, что заказ был создан для нее.
func (s *Service) paypalTransaction(ctx context.Context, transactionID, orderID string) (*models.Transaction, error) {
	tx, err := s.repo.GetTransaction(ctx, transactionID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrTransactionNotFound
	case err != nil:
		return nil, err
	}
	if tx.PaymentMethod != models.MethodPayPal {
		return nil, ErrMethodMismatch
	}
	if tx.ProviderRef == nil || *tx.ProviderRef != orderID {
		return nil, ErrOrderMismatch
	}
	return tx, nil
}

func checkCapturedAmount(order *paypal.Order, tx *models.Transaction) error {
	amount, ok := order.CapturedAmount()
	if !ok {
		return nil
	}
	if amount.CurrencyCode != "" && amount.CurrencyCode != money.Currency {
		return ErrAmountMismatch
	}
	value, err := money.Parse(amount.Value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAmountMismatch, err)
	}
	if !money.Equal(value, tx.Amount) {
		return ErrAmountMismatch
	}
	return nil
}

func captured(orderID, transactionID string) *Capture {
	return &Capture{
		Success:       true,
		PaymentID:     orderID,
		Status:        "completed",
		TransactionID: transactionID,
	}
}

func providerErr(provider string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	msg := err.Error()
	var ppErr *paypal.APIError
	if errors.As(err, &ppErr) && ppErr.Message != "" {
		msg = ppErr.Message
	}
	return &ProviderError{Provider: provider, Message: msg, Err: err}
}
