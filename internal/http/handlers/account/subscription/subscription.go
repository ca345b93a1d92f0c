// Package subscription реализует GET /api/v1/account/subscription.
package subscription

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/services/account"
)

// Service возвращает действующую подписку пользователя.
type Service interface {
	ActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
}

// Handler обрабатывает запрос текущей подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Текущая подписка
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} models.Subscription
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /account/subscription [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.subscription"
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

	sub, err := h.service.ActiveSubscription(r.Context(), userID)
	if err != nil {
		if errors.Is(err, account.ErrNoActiveSubscription) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error(account.ErrNoActiveSubscription.Error()))
			return
		}
		log.Error("failed to read subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(sub))
}
