package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

// PendingStore хранит данные регистрации между созданием заказа и возвратом с платежной страницы.
type PendingStore struct {
	cache *Cache
	ttl   time.Duration
}

// NewPendingStore создает хранилище незавершенных регистраций с временем жизни записей ttl.
func NewPendingStore(c *Cache, ttl time.Duration) *PendingStore {
	return &PendingStore{cache: c, ttl: ttl}
}

func pendingKey(transactionID string) string {
	return "reg_pending:" + transactionID
}

// Save сохраняет запись и продлевает ее время жизни.
func (s *PendingStore) Save(ctx context.Context, reg *models.PendingRegistration) error {
	const op = "cache.PendingStore.Save"
	if reg.TransactionID == "" {
		return fmt.Errorf("%s: empty transaction id", op)
	}
	if err := s.cache.Set(ctx, pendingKey(reg.TransactionID), reg, s.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает запись или nil, если ее нет или она истекла.
func (s *PendingStore) Get(ctx context.Context, transactionID string) (*models.PendingRegistration, error) {
	const op = "cache.PendingStore.Get"
	var reg models.PendingRegistration
	found, err := s.cache.Get(ctx, pendingKey(transactionID), &reg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &reg, nil
}

// Delete удаляет запись после успешного создания учетной записи.
func (s *PendingStore) Delete(ctx context.Context, transactionID string) error {
	const op = "cache.PendingStore.Delete"
	if err := s.cache.Invalidate(ctx, pendingKey(transactionID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
