package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ExpireSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) FindSubscriptionsExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.ExpiringSubscription, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExpiringSubscription), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, msg any) error {
	args := m.Called(ctx, routingKey, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var fixedNow = time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

func newService(repo SubscriptionRepository, pub Publisher) *Service {
	s := New(repo, pub, newNoopLogger())
	s.now = func() time.Time { return fixedNow }
	return s
}

func TestService_NotifyExpiringTomorrow(t *testing.T) {
	sub := &models.ExpiringSubscription{
		Email:    "ana@example.com",
		Name:     "Ana",
		PlanName: "Premium",
		EndAt:    fixedNow.Add(20 * time.Hour),
	}

	tests := []struct {
		name       string
		setupMocks func(*MockRepository, *MockPublisher)
	}{
		{
			name: "publishes each subscription",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("FindSubscriptionsExpiringBetween", mock.Anything, fixedNow, fixedNow.Add(24*time.Hour)).
					Return([]*models.ExpiringSubscription{sub, sub}, nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingUpcoming, sub).Return(nil).Twice()
			},
		},
		{
			name: "publish error does not stop the loop",
			setupMocks: func(r *MockRepository, p *MockPublisher) {
				r.On("FindSubscriptionsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
					Return([]*models.ExpiringSubscription{sub, sub}, nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingUpcoming, sub).Return(errors.New("channel closed")).Twice()
			},
		},
		{
			name: "nothing to notify",
			setupMocks: func(r *MockRepository, _ *MockPublisher) {
				r.On("FindSubscriptionsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
					Return([]*models.ExpiringSubscription{}, nil).Once()
			},
		},
		{
			name: "repository error",
			setupMocks: func(r *MockRepository, _ *MockPublisher) {
				r.On("FindSubscriptionsExpiringBetween", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			pub := new(MockPublisher)
			tt.setupMocks(repo, pub)

			newService(repo, pub).NotifyExpiringTomorrow(context.Background())

			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestService_ExpireDue(t *testing.T) {
	t.Run("expires due subscriptions", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ExpireSubscriptions", mock.Anything, fixedNow).Return(int64(3), nil).Once()

		newService(repo, new(MockPublisher)).ExpireDue(context.Background())
		repo.AssertExpectations(t)
	})

	t.Run("error is logged", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("ExpireSubscriptions", mock.Anything, fixedNow).Return(int64(0), errors.New("db error")).Once()

		newService(repo, new(MockPublisher)).ExpireDue(context.Background())
		repo.AssertExpectations(t)
	})
}

func TestService_RunStopsOnCancel(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ExpireSubscriptions", mock.Anything, mock.Anything).Return(int64(0), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newService(repo, new(MockPublisher)).RunExpire(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunExpire did not return after cancel")
	}
	assert.GreaterOrEqual(t, len(repo.Calls), 2)
}
