// Package stripeconfirm реализует POST /api/v1/payments/stripe/confirm-payment.
package stripeconfirm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/services/checkout"
)

// Request тело запроса.
type Request struct {
	PaymentIntentID string `json:"paymentIntentId"`
}

// Service проверяет статус PaymentIntent и подтверждает транзакцию.
type Service interface {
	ConfirmStripePayment(ctx context.Context, paymentIntentID string) (*checkout.StripeConfirmation, error)
}

// Handler обрабатывает подтверждение оплаты Stripe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты Stripe
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор PaymentIntent"
// @Success 200 {object} checkout.StripeConfirmation
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /payments/stripe/confirm-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.stripeconfirm"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(checkout.ErrMissingPaymentIntentID.Error()))
		return
	}

	res, err := h.service.ConfirmStripePayment(r.Context(), req.PaymentIntentID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	log.Info("stripe payment confirmed", slog.String("transaction_id", res.TransactionID))
	render.JSON(w, r, response.StatusOKWithData(res))
}
