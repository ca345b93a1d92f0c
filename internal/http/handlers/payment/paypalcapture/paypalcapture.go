// Package paypalcapture реализует POST /api/v1/payments/paypal/capture-order.
package paypalcapture

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

// Request тело запроса. TransactionID можно не передавать, тогда он берется из заказа.
type Request struct {
	OrderID       string `json:"orderId"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Service списывает оплату по одобренному заказу PayPal.
type Service interface {
	CapturePayPalOrder(ctx context.Context, orderID, transactionID string) (*checkout.Capture, error)
}

// Handler обрабатывает capture заказа PayPal.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подтверждение оплаты PayPal
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Заказ PayPal"
// @Success 200 {object} checkout.Capture
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /payments/paypal/capture-order [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.paypalcapture"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(checkout.ErrMissingOrderID.Error()))
		return
	}

	capture, err := h.service.CapturePayPalOrder(r.Context(), req.OrderID, req.TransactionID)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}
	log.Info("paypal order captured", slog.String("order_id", req.OrderID), slog.String("transaction_id", capture.TransactionID))
	render.JSON(w, r, response.StatusOKWithData(capture))
}
