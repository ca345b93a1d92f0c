// Package contentremove реализует DELETE /api/v1/admin/contents/{id}.
package contentremove

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
)

// Service описывает интерфейс удаления записи каталога.
type Service interface {
	Delete(ctx context.Context, id int64) error
}

// Handler удаляет запись каталога вместе с ее медиа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление контента
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param id path int true "ID записи"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/contents/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.contentremove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		log.Info("invalid id format", slog.String("id", chi.URLParam(r, "id")))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("content deleted", slog.Int64("content_id", id))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": id}))
}
