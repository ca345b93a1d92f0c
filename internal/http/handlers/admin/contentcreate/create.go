// Package contentcreate реализует POST /api/v1/admin/contents.
package contentcreate

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/apierr"
	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/services/content"
)

// Service описывает интерфейс создания записи каталога.
type Service interface {
	Create(ctx context.Context, in content.Input) (*models.Content, error)
}

// Handler добавляет фильм в каталог.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Добавление контента
// @Description Ключи imageKey и videoKey берутся из ответа загрузки медиа.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body content.Input true "Запись каталога"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /admin/contents [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.contentcreate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var in content.Input
	if err := render.DecodeJSON(r.Body, &in); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(in); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			log.Error("validator error", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
			return
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(verrs))
		return
	}

	c, err := h.service.Create(r.Context(), in)
	if err != nil {
		apierr.Write(w, r, log, err)
		return
	}

	log.Info("content created", slog.Int64("content_id", c.ID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(c))
}
