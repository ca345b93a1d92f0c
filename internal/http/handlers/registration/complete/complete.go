// Package complete реализует POST /api/v1/auth/register-with-payment: создание
// учетной записи для оплаченной транзакции.
package complete

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

// MessageRegistered текст успешного создания учетной записи.
const MessageRegistered = "Usuario registrado exitosamente"

// Request тело запроса. UserData нужен только если серверная копия формы истекла.
type Request struct {
	TransactionID string                 `json:"transactionId"`
	UserData      *registration.UserData `json:"userData,omitempty"`
	PaymentMethod string                 `json:"paymentMethod"`
}

// Result ответ после создания учетной записи.
type Result struct {
	Success       bool      `json:"success"`
	UserID        uuid.UUID `json:"userId"`
	TransactionID string    `json:"transactionId"`
	Message       string    `json:"message"`
}

// NewResult ответ для созданной или уже существующей учетной записи.
func NewResult(acc *registration.Account) Result {
	return Result{
		Success:       true,
		UserID:        acc.UserID,
		TransactionID: acc.TransactionID,
		Message:       MessageRegistered,
	}
}

// Service описывает интерфейс создания учетной записи.
type Service interface {
	Materialize(ctx context.Context, req registration.MaterializeRequest) (*registration.Account, error)
}

// Handler обрабатывает запрос на создание учетной записи после оплаты.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Создание учетной записи после оплаты
// @Tags Registration
// @Accept  json
// @Produce  json
// @Param request body Request true "Транзакция и, при необходимости, данные формы"
// @Success 200 {object} Result
// @Failure 400 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Failure 410 {object} response.ErrorResponse
// @Router /auth/register-with-payment [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.registration.complete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	acc, err := h.service.Materialize(r.Context(), registration.MaterializeRequest{
		TransactionID: req.TransactionID,
		Data:          req.UserData,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("account ready", slog.String("user_id", acc.UserID.String()), slog.Bool("existing", acc.Existing))
	render.JSON(w, r, response.StatusOKWithData(NewResult(acc)))
}
