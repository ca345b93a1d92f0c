// Package account содержит операции личного кабинета: подписка, история оплат, лимит воспроизведений.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

var (
	// ErrNoActiveSubscription у пользователя нет подписки activa с end_at в будущем.
	ErrNoActiveSubscription = errors.New("no active subscription")
	// ErrReproductionLimit исчерпан лимит воспроизведений тарифа.
	ErrReproductionLimit = errors.New("reproduction limit reached")
)

// Repository определяет методы хранилища для личного кабинета.
type Repository interface {
	// GetActiveSubscription возвращает последнюю действующую подписку.
	GetActiveSubscription(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Subscription, error)
	// ListTransactionsByUser возвращает транзакции пользователя, новые первыми.
	ListTransactionsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error)
	// ConsumeReproduction увеличивает счетчик, пока он ниже лимита тарифа.
	ConsumeReproduction(ctx context.Context, userID uuid.UUID) (int, int, error)
}

// Usage счетчик воспроизведений после списания.
type Usage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
}

// Service реализует операции личного кабинета.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// ActiveSubscription возвращает действующую подписку пользователя.
func (s *Service) ActiveSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	const op = "account.ActiveSubscription"

	sub, err := s.repo.GetActiveSubscription(ctx, userID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoActiveSubscription
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// TransactionHistory возвращает историю оплат пользователя.
func (s *Service) TransactionHistory(ctx context.Context, userID uuid.UUID) ([]*models.Transaction, error) {
	const op = "account.TransactionHistory"

	list, err := s.repo.ListTransactionsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if list == nil {
		list = []*models.Transaction{}
	}
	return list, nil
}

// ConsumeReproduction списывает одно воспроизведение. Требует действующую подписку.
func (s *Service) ConsumeReproduction(ctx context.Context, userID uuid.UUID) (*Usage, error) {
	const op = "account.ConsumeReproduction"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("user_id", userID.String()),
	)

	if _, err := s.ActiveSubscription(ctx, userID); err != nil {
		return nil, err
	}

	used, limit, err := s.repo.ConsumeReproduction(ctx, userID)
	if errors.Is(err, repository.ErrReproductionLimit) {
		log.Info("reproduction limit reached")
		return nil, ErrReproductionLimit
	}
	if err != nil {
		log.Error("failed to consume reproduction", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Usage{Used: used, Limit: limit}, nil
}
