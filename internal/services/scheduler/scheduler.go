// Package scheduler выполняет периодические задачи по подпискам: перевод просроченных
// в vencida и рассылку уведомлений о скором окончании.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

// SubscriptionRepository методы хранилища, нужные планировщику.
type SubscriptionRepository interface {
	ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error)
	FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscription, error)
}

// Publisher публикует уведомления в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// Service планировщик задач.
type Service struct {
	repo      SubscriptionRepository
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

// New создает новый экземпляр Service.
func New(repo SubscriptionRepository, publisher Publisher, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		publisher: publisher,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunExpire переводит просроченные подписки в vencida сразу и затем каждые interval до отмены ctx.
func (s *Service) RunExpire(ctx context.Context, interval time.Duration) {
	s.every(ctx, interval, s.ExpireDue)
}

// RunNotify рассылает уведомления об окончании подписки сразу и затем каждые interval до отмены ctx.
func (s *Service) RunNotify(ctx context.Context, interval time.Duration) {
	s.every(ctx, interval, s.NotifyExpiringTomorrow)
}

func (s *Service) every(ctx context.Context, interval time.Duration, job func(context.Context)) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// ExpireDue один проход перевода просроченных подписок.
func (s *Service) ExpireDue(ctx context.Context) {
	const op = "scheduler.ExpireDue"
	log := s.log.With(slog.String("op", op))

	n, err := s.repo.ExpireSubscriptions(ctx, s.now())
	if err != nil {
		log.Error("failed to expire subscriptions", sl.Err(err))
		return
	}
	metrics.AddExpired(n)
	if n > 0 {
		log.Info("subscriptions expired", slog.Int64("count", n))
	}
}

// NotifyExpiringTomorrow публикует upcoming для подписок, которые заканчиваются в ближайшие сутки.
func (s *Service) NotifyExpiringTomorrow(ctx context.Context) {
	const op = "scheduler.NotifyExpiringTomorrow"
	log := s.log.With(slog.String("op", op))

	from := s.now()
	subs, err := s.repo.FindSubscriptionsExpiringBetween(ctx, from, from.Add(24*time.Hour))
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return
	}
	if len(subs) == 0 {
		log.Info("no expiring subscriptions found")
		return
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(subs)))
	for _, sub := range subs {
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingUpcoming, sub); err != nil {
			log.Error("failed to publish message", slog.String("email", sub.Email), sl.Err(err))
		}
	}
}
