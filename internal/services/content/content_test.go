package content

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateContent(ctx context.Context, c *models.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockRepository) ListContents(ctx context.Context) ([]*models.Content, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Content), args.Error(1)
}

func (m *MockRepository) UpdateContent(ctx context.Context, c *models.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockRepository) DeleteContent(ctx context.Context, id int64) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

type MockObjects struct {
	mock.Mock
}

func (m *MockObjects) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validInput() Input {
	return Input{
		Title:       " Origen ",
		Description: "Un ladrón que roba secretos a través de los sueños.",
		Genre:       "Ciencia ficción",
		Year:        2010,
		Duration:    "2h 28min",
		Rating:      decimal.RequireFromString("8.84"),
		ImageKey:    "images/Origen_1700000000000.jpg",
		VideoKey:    "videos/Origen_1700000000001.mp4",
		Featured:    true,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("trims fields and rounds rating", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("CreateContent", ctx, mock.MatchedBy(func(c *models.Content) bool {
			return c.Title == "Origen" && c.Rating.Equal(decimal.RequireFromString("8.8")) && c.Featured
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Content).ID = 7
		}).Return(nil).Once()

		got, err := New(repo, nil, newNoopLogger()).Create(ctx, validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(7), got.ID)
		repo.AssertExpectations(t)
	})

	tests := []struct {
		name   string
		modify func(in *Input)
	}{
		{"rating below range", func(in *Input) { in.Rating = decimal.RequireFromString("0.5") }},
		{"rating above range", func(in *Input) { in.Rating = decimal.RequireFromString("10.5") }},
		{"blank title", func(in *Input) { in.Title = "   " }},
		{"video key as image", func(in *Input) { in.ImageKey = "videos/x.mp4" }},
		{"key outside media", func(in *Input) { in.VideoKey = "../etc/passwd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			in := validInput()
			tt.modify(&in)

			_, err := New(repo, nil, newNoopLogger()).Create(ctx, in)
			assert.ErrorIs(t, err, ErrInvalid)
			repo.AssertNotCalled(t, "CreateContent", mock.Anything, mock.Anything)
		})
	}
}

func TestService_GetAndUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetContent", ctx, int64(3)).Return(nil, repository.ErrNotFound).Once()
		_, err := New(repo, nil, newNoopLogger()).Get(ctx, 3)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("update sets id", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateContent", ctx, mock.MatchedBy(func(c *models.Content) bool { return c.ID == 5 })).Return(nil).Once()
		got, err := New(repo, nil, newNoopLogger()).Update(ctx, 5, validInput())
		require.NoError(t, err)
		assert.Equal(t, int64(5), got.ID)
	})

	t.Run("update missing", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("UpdateContent", ctx, mock.Anything).Return(repository.ErrNotFound).Once()
		_, err := New(repo, nil, newNoopLogger()).Update(ctx, 5, validInput())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list error wrapped", func(t *testing.T) {
		repo := new(MockRepository)
		boom := errors.New("db down")
		repo.On("ListContents", ctx).Return(nil, boom).Once()
		_, err := New(repo, nil, newNoopLogger()).List(ctx)
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	deleted := &models.Content{ID: 9, ImageKey: "images/a.jpg", VideoKey: "videos/a.mp4"}

	t.Run("removes media of deleted content", func(t *testing.T) {
		repo := new(MockRepository)
		objects := new(MockObjects)
		repo.On("DeleteContent", ctx, int64(9)).Return(deleted, nil).Once()
		objects.On("Delete", mock.Anything, "images/a.jpg").Return(nil).Once()
		objects.On("Delete", mock.Anything, "videos/a.mp4").Return(errors.New("s3 timeout")).Once()

		require.NoError(t, New(repo, objects, newNoopLogger()).Delete(ctx, 9))
		objects.AssertExpectations(t)
	})

	t.Run("without media storage", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("DeleteContent", ctx, int64(9)).Return(deleted, nil).Once()
		require.NoError(t, New(repo, nil, newNoopLogger()).Delete(ctx, 9))
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(MockRepository)
		objects := new(MockObjects)
		repo.On("DeleteContent", ctx, int64(9)).Return(nil, repository.ErrNotFound).Once()

		err := New(repo, objects, newNoopLogger()).Delete(ctx, 9)
		assert.ErrorIs(t, err, ErrNotFound)
		objects.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
