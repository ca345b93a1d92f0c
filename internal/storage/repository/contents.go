package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

const contentColumns = `id, title, description, genre, year, duration, rating,
	image_key, video_key, trending, featured, created_at, updated_at`

func scanContent(row rowScanner) (*models.Content, error) {
	var c models.Content
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Genre, &c.Year, &c.Duration, &c.Rating,
		&c.ImageKey, &c.VideoKey, &c.Trending, &c.Featured, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContent добавляет запись каталога и заполняет id и временные метки.
func (s *Storage) CreateContent(ctx context.Context, c *models.Content) error {
	const op = "storage.CreateContent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO contents (title, description, genre, year, duration, rating, image_key, video_key, trending, featured)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		c.Title, c.Description, c.Genre, c.Year, c.Duration, c.Rating, c.ImageKey, c.VideoKey, c.Trending, c.Featured).
		Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetContent возвращает запись каталога по id.
func (s *Storage) GetContent(ctx context.Context, id int64) (*models.Content, error) {
	const op = "storage.GetContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanContent(s.DB.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM contents WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListContents возвращает каталог, новые записи первыми.
func (s *Storage) ListContents(ctx context.Context) ([]*models.Content, error) {
	const op = "storage.ListContents"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+contentColumns+` FROM contents ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Content
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateContent заменяет поля записи и обновляет updated_at.
func (s *Storage) UpdateContent(ctx context.Context, c *models.Content) error {
	const op = "storage.UpdateContent"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	err := s.DB.QueryRowContext(ctx,
		`UPDATE contents
		 SET title = $2, description = $3, genre = $4, year = $5, duration = $6, rating = $7,
		     image_key = $8, video_key = $9, trending = $10, featured = $11, updated_at = NOW()
		 WHERE id = $1
		 RETURNING created_at, updated_at`,
		c.ID, c.Title, c.Description, c.Genre, c.Year, c.Duration, c.Rating,
		c.ImageKey, c.VideoKey, c.Trending, c.Featured).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteContent удаляет запись и возвращает ее, чтобы можно было убрать медиа.
func (s *Storage) DeleteContent(ctx context.Context, id int64) (*models.Content, error) {
	const op = "storage.DeleteContent"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanContent(s.DB.QueryRowContext(ctx, `DELETE FROM contents WHERE id = $1 RETURNING `+contentColumns, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}
