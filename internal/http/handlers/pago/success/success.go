// Package success реализует GET /api/v1/pago/success: возврат пользователя от
// провайдера после оплаты.
package success

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/registration/complete"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/services/checkout"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

// Payments подтверждает оплату у провайдера.
type Payments interface {
	CapturePayPalOrder(ctx context.Context, orderID, transactionID string) (*checkout.Capture, error)
	ConfirmStripePayment(ctx context.Context, paymentIntentID string) (*checkout.StripeConfirmation, error)
}

// Registrar создает учетную запись для оплаченной транзакции.
type Registrar interface {
	Materialize(ctx context.Context, req registration.MaterializeRequest) (*registration.Account, error)
}

// Handler обрабатывает страницу успешной оплаты.
type Handler struct {
	log       *slog.Logger
	payments  Payments
	registrar Registrar
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, payments Payments, registrar Registrar) *Handler {
	return &Handler{log: log, payments: payments, registrar: registrar}
}

// ServeHTTP godoc
// @Summary Возврат после успешной оплаты
// @Tags Registration
// @Produce  json
// @Param method query string true "paypal или stripe"
// @Param transaction query string true "Идентификатор транзакции"
// @Param token query string false "Заказ PayPal"
// @Param payment_intent query string false "PaymentIntent Stripe"
// @Success 200 {object} complete.Result
// @Failure 400 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 410 {object} response.ErrorResponse
// @Router /pago/success [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.pago.success"
	q := r.URL.Query()
	method := q.Get("method")
	txID := q.Get("transaction")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", method),
		slog.String("transaction_id", txID),
	)

	if txID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(registration.ErrMissingTransactionID.Error()))
		return
	}

	// провайдер мог не прислать идентификатор оплаты, тогда подтверждение ждем от вебхука
	switch method {
	case models.MethodPayPal:
		if token := q.Get("token"); token != "" {
			if _, err := h.payments.CapturePayPalOrder(r.Context(), token, txID); err != nil {
				apierr.Write(w, r, log, err)
				return
			}
		}
	case models.MethodStripe:
		if pi := q.Get("payment_intent"); pi != "" {
			if _, err := h.payments.ConfirmStripePayment(r.Context(), pi); err != nil {
				apierr.Write(w, r, log, err)
				return
			}
		}
	default:
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown payment method"))
		return
	}

	acc, err := h.registrar.Materialize(r.Context(), registration.MaterializeRequest{
		TransactionID: txID,
		PaymentMethod: method,
	})
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	log.Info("account ready after redirect", slog.String("user_id", acc.UserID.String()))
	render.JSON(w, r, response.StatusOKWithData(complete.NewResult(acc)))
}
