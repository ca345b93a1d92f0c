// Package transactions реализует GET /api/v1/account/transactions.
package transactions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

// Service возвращает историю транзакций пользователя.
type Service interface {
	TransactionHistory(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
}

// Handler обрабатывает запрос истории транзакций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История транзакций
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {array} models.Transaction
// @Failure 401 {object} response.ErrorResponse
// @Router /account/transactions [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.transactions"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFrom(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	list, err := h.service.TransactionHistory(r.Context(), userID)
	if err != nil {
		log.Error("failed to list transactions", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list transactions"))
		return
	}

	log.Info("transactions listed", slog.Int("count", len(list)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(list),
		"entries":    list,
	}))
}
