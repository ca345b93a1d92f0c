// Package mediaupload реализует POST /api/v1/admin/media.
package mediaupload

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
	Put(ctx context.Context, in media.Upload) (*media.Object, error)
}

// Handler принимает multipart форму с полями file, title, kind.
type Handler struct {
	log      *slog.Logger
	storage  Storage
	maxBytes int64
}

// New создает новый экземпляр Handler. maxUploadMB ограничивает размер тела запроса.
func New(log *slog.Logger, storage Storage, maxUploadMB int64) *Handler {
	return &Handler{log: log, storage: storage, maxBytes: maxUploadMB << 20}
}

// ServeHTTP godoc
// @Summary Загрузка медиа
// @Tags Admin
// @Accept  multipart/form-data
// @Produce  json
// @Security BearerAuth
// @Param file formData file true "Файл"
// @Param title formData string true "Название"
// @Param kind formData string true "image или video"
// @Success 201 {object} media.Object
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /admin/media [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.mediaupload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		log.Warn("failed to parse multipart form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field file is required"))
		return
	}
	defer file.Close()

	title := r.FormValue("title")
	if title == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("field title is required"))
		return
	}

	obj, err := h.storage.Put(r.Context(), media.Upload{
		Kind:        r.FormValue("kind"),
		Title:       title,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		if errors.Is(err, media.ErrInvalidKind) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(media.ErrInvalidKind.Error()))
			return
		}
		log.Error("failed to upload media", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("failed to upload media"))
		return
	}

	log.Info("media uploaded", slog.String("key", obj.Key), slog.Int64("size", header.Size))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(obj))
}
