// Package mediaremove реализует DELETE /api/v1/admin/media?key=.
package mediaremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/media"
)

// Storage хранилище медиа.
type Storage interface {
	Delete(ctx context.Context, key string) error
}

// Handler удаляет объект медиа.
type Handler struct {
	log     *slog.Logger
	storage Storage
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, storage Storage) *Handler {
	return &Handler{log: log, storage: storage}
}

// ServeHTTP godoc
// @Summary Удаление медиа
// @Tags Admin
// @Produce  json
// @Security BearerAuth
// @Param key query string true "Ключ объекта"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /admin/media [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.mediaremove"
	key := r.URL.Query().Get("key")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("key", key),
	)

	if err := h.storage.Delete(r.Context(), key); err != nil {
		if errors.Is(err, media.ErrInvalidKey) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(media.ErrInvalidKey.Error()))
			return
		}
		log.Error("failed to delete media", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to delete media"))
		return
	}

	log.Info("media deleted")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{"deleted": key}))
}
