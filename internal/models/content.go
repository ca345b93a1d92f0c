package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Content фильм каталога. ImageKey и VideoKey это ключи объектов в медиа-хранилище.
type Content struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Genre       string          `json:"genre"`
	Year        int             `json:"year"`
	Duration    string          `json:"duration"`
	Rating      decimal.Decimal `json:"rating"`
	ImageKey    string          `json:"image_key"`
	VideoKey    string          `json:"video_key"`
	Trending    bool            `json:"trending"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
