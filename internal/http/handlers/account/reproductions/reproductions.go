// Package reproductions реализует POST /api/v1/account/reproductions: учет
// воспроизведения в пределах лимита тарифа.
package reproductions

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
	"github.com/magabrotheeeer/watchhub/internal/services/account"
)

// Service списывает одно воспроизведение.
type Service interface {
	ConsumeReproduction(ctx context.Context, userID uuid.UUID) (*account.Usage, error)
}

// Handler обрабатывает запрос на воспроизведение.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Учет воспроизведения
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} account.Usage
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /account/reproductions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account.reproductions"
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

	usage, err := h.service.ConsumeReproduction(r.Context(), userID)
	switch {
	case errors.Is(err, account.ErrReproductionLimit):
		log.Info("reproduction limit reached")
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(account.ErrReproductionLimit.Error()))
		return
	case errors.Is(err, account.ErrNoActiveSubscription):
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error(account.ErrNoActiveSubscription.Error()))
		return
	case err != nil:
		log.Error("failed to consume reproduction", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(usage))
}
