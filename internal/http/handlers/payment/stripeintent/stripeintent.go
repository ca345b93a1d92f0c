// Package stripeintent реализует POST /api/v1/payments/stripe/create-payment-intent.
package stripeintent

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

// Service создает PaymentIntent для транзакции.
type Service interface {
	CreateStripeIntent(ctx context.Context, req checkout.OrderRequest) (*checkout.StripeIntent, error)
}

// Handler обрабатывает создание PaymentIntent.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Создание Stripe PaymentIntent
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body checkout.OrderRequest true "Сумма, тариф и транзакция"
// @Success 200 {object} checkout.StripeIntent
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /payments/stripe/create-payment-intent [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.stripeintent"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req checkout.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(checkout.ErrMissingFields.Error()))
		return
	}

	intent, err := h.service.CreateStripeIntent(r.Context(), req)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(intent))
}
