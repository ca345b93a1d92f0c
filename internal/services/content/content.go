// Package content управляет каталогом фильмов: записи ссылаются на изображение
// и видео, загруженные в медиа-хранилище.
package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/media"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

var (
	// ErrNotFound записи каталога нет.
	ErrNotFound = errors.New("content not found")
	// ErrInvalid запись не прошла проверку.
	ErrInvalid = errors.New("invalid content")
)

var (
	minRating = decimal.NewFromInt(1)
	maxRating = decimal.NewFromInt(10)
)

// Repository методы хранилища каталога.
type Repository interface {
	CreateContent(ctx context.Context, c *models.Content) error
	GetContent(ctx context.Context, id int64) (*models.Content, error)
	ListContents(ctx context.Context) ([]*models.Content, error)
	UpdateContent(ctx context.Context, c *models.Content) error
	DeleteContent(ctx context.Context, id int64) (*models.Content, error)
}

// Objects удаляет медиа удаленной записи.
type Objects interface {
	Delete(ctx context.Context, key string) error
}

// Input поля записи, которые задает администратор.
type Input struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"required"`
	Genre       string          `json:"genre" validate:"required"`
	Year        int             `json:"year" validate:"required,min=1888,max=2100"`
	Duration    string          `json:"duration" validate:"required"`
	Rating      decimal.Decimal `json:"rating"`
	ImageKey    string          `json:"imageKey" validate:"required"`
	VideoKey    string          `json:"videoKey" validate:"required"`
	Trending    bool            `json:"trending"`
	Featured    bool            `json:"featured"`
}

// Service каталог.
type Service struct {
	repo    Repository
	objects Objects
	log     *slog.Logger
}

// New создает Service. objects может быть nil, тогда медиа при удалении не трогаются.
func New(repo Repository, objects Objects, log *slog.Logger) *Service {
	return &Service{repo: repo, objects: objects, log: log}
}

func (in Input) toContent() (*models.Content, error) {
	c := &models.Content{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Genre:       strings.TrimSpace(in.Genre),
		Year:        in.Year,
		Duration:    strings.TrimSpace(in.Duration),
		Rating:      in.Rating.Round(1),
		ImageKey:    in.ImageKey,
		VideoKey:    in.VideoKey,
		Trending:    in.Trending,
		Featured:    in.Featured,
	}
	switch {
	case c.Title == "" || c.Description == "" || c.Genre == "" || c.Duration == "":
		return nil, fmt.Errorf("%w: title, description, genre and duration are required", ErrInvalid)
	case c.Rating.LessThan(minRating) || c.Rating.GreaterThan(maxRating):
		return nil, fmt.Errorf("%w: rating must be between 1 and 10", ErrInvalid)
	case !media.KeyOfKind(c.ImageKey, media.KindImage):
		return nil, fmt.Errorf("%w: imageKey must be an uploaded image", ErrInvalid)
	case !media.KeyOfKind(c.VideoKey, media.KindVideo):
		return nil, fmt.Errorf("%w: videoKey must be an uploaded video", ErrInvalid)
	}
	return c, nil
}

// Create добавляет запись каталога.
func (s *Service) Create(ctx context.Context, in Input) (*models.Content, error) {
	const op = "content.Create"

	c, err := in.toContent()
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateContent(ctx, c); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Get возвращает запись по id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Content, error) {
	const op = "content.Get"

	c, err := s.repo.GetContent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// List возвращает каталог.
func (s *Service) List(ctx context.Context) ([]*models.Content, error) {
	const op = "content.List"

	list, err := s.repo.ListContents(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Update заменяет поля записи. Замененные медиа остаются в хранилище.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*models.Content, error) {
	const op = "content.Update"

	c, err := in.toContent()
	if err != nil {
		return nil, err
	}
	c.ID = id
	err = s.repo.UpdateContent(ctx, c)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// Delete удаляет запись, затем ее изображение и видео. Ошибка удаления медиа
// только логируется: запись уже удалена.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "content.Delete"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.Int64("content_id", id),
	)

	c, err := s.repo.DeleteContent(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if s.objects == nil {
		return nil
	}
	for _, key := range []string{c.ImageKey, c.VideoKey} {
		if err := s.objects.Delete(context.WithoutCancel(ctx), key); err != nil {
			log.Warn("failed to delete content media", slog.String("key", key), sl.Err(err))
		}
	}
	return nil
}
