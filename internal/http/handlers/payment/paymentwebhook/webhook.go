// Package paymentwebhook реализует POST /api/v1/webhooks/stripe.
package paymentwebhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

const maxBodyBytes = 64 << 10

// EventParser проверяет подпись Stripe-Signature и разбирает событие.
type EventParser interface {
	ParseEvent(payload []byte, signature string) (*stripe.Event, error)
}

// Service применяет результат оплаты к транзакции.
type Service interface {
	CompleteFromWebhook(ctx context.Context, transactionID, providerRef string) error
	FailFromWebhook(ctx context.Context, transactionID, providerRef string) error
}

// Handler принимает события Stripe.
type Handler struct {
	log     *slog.Logger
	parser  EventParser
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, parser EventParser, service Service) *Handler {
	return &Handler{log: log, parser: parser, service: service}
}

// Ack ответ на принятое событие.
type Ack struct {
	Received bool `json:"received"`
}

// ServeHTTP godoc
// @Summary Вебхук Stripe
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} Ack
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /webhooks/stripe [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	defer r.Body.Close()

	ev, err := h.parser.ParseEvent(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, stripe.ErrInvalidSignature) {
			metrics.IncWebhookEvent("invalid_signature")
			log.Warn("invalid or missing webhook signature", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Webhook Error: invalid signature"))
			return
		}
		log.Error("failed to parse webhook event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Webhook Error: invalid payload"))
		return
	}
	metrics.IncWebhookEvent(ev.Type)
	log = log.With(slog.String("event_id", ev.ID), slog.String("event", ev.Type))

	switch ev.Type {
	case stripe.EventPaymentSucceeded, stripe.EventPaymentFailed:
		if ev.Intent == nil || ev.Intent.TransactionID == "" {
			log.Warn("payment intent without transaction metadata")
			break
		}
		if err := h.apply(r.Context(), ev); err != nil {
			if errors.Is(err, registration.ErrTransactionNotFound) {
				// повтор Stripe не поможет, транзакции нет у нас
				log.Warn("webhook for unknown transaction", slog.String("transaction_id", ev.Intent.TransactionID))
				break
			}
			if errors.Is(err, registration.ErrProviderRefMismatch) {
				log.Warn("webhook intent does not match transaction", slog.String("transaction_id", ev.Intent.TransactionID))
				break
			}
			log.Error("failed to process webhook event", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("webhook processing failed"))
			return
		}
	default:
		log.Info("ignored webhook event")
	}

	log.Info("webhook processed")
	render.JSON(w, r, Ack{Received: true})
}

func (h *Handler) apply(ctx context.Context, ev *stripe.Event) error {
	if ev.Type == stripe.EventPaymentSucceeded {
		return h.service.CompleteFromWebhook(ctx, ev.Intent.TransactionID, ev.Intent.ID)
	}
	return h.service.FailFromWebhook(ctx, ev.Intent.TransactionID, ev.Intent.ID)
}
