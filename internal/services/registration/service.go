// Package registration реализует регистрацию в WatchHub: форму, отложенную
// регистрацию до оплаты и создание учетной записи после подтверждения платежа.
package registration

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/models"
)

var (
	ErrInvalidForm          = errors.New("invalid registration form")
	ErrHandleTaken          = errors.New("handle already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrInvalidAdminCode     = errors.New("invalid or used admin code")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrProviderRefMismatch  = errors.New("provider reference does not match the transaction")
	ErrPaymentNotConfirmed  = errors.New("payment is not confirmed")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrRegistrationExpired  = errors.New("pending registration expired")
	ErrInProgress           = errors.New("registration already in progress")
	ErrMissingUserData      = errors.New("missing user data: email, password, name")
	ErrMissingTransactionID = errors.New("transaction id is required")
)

// Repository методы хранилища, которые использует регистрация.
type Repository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	CreateIdentity(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error

	HandleExists(ctx context.Context, handle string) (bool, error)
	CreateProfile(ctx context.Context, p *models.Profile) error

	CreatePendingTransaction(ctx context.Context, t *models.Transaction) (bool, error)
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	CompleteTransaction(ctx context.Context, id string, userID *uuid.UUID, providerRef string, at time.Time) (bool, error)
	FailTransaction(ctx context.Context, id, providerRef string) (bool, error)
	AttachTransactionUser(ctx context.Context, id string, userID uuid.UUID) (bool, error)

	CreateSubscription(ctx context.Context, sub *models.Subscription) (bool, error)

	ClaimAdminCode(ctx context.Context, code string, at time.Time) (bool, error)
	ReleaseAdminCode(ctx context.Context, code string) error
	AssignAdminCode(ctx context.Context, code string, userID uuid.UUID) error
}

// PlanSource каталог тарифов.
type PlanSource interface {
	GetPlan(ctx context.Context, id int) (*models.Plan, error)
}

// PendingStore серверное хранилище отложенных регистраций.
type PendingStore interface {
	Save(ctx context.Context, reg *models.PendingRegistration) error
	Get(ctx context.Context, transactionID string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, transactionID string) error
}

// Locker блокировка транзакции на время создания учетной записи.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

// Publisher публикует уведомления.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service сценарий регистрации.
type Service struct {
	log       *slog.Logger
	repo      Repository
	plans     PlanSource
	pending   PendingStore
	locker    Locker
	publisher Publisher
	lockTTL   time.Duration
	now       func() time.Time
}

// New создает Service. publisher может быть nil, тогда уведомления не отправляются.
func New(log *slog.Logger, repo Repository, plans PlanSource, pending PendingStore, locker Locker, publisher Publisher, lockTTL time.Duration) *Service {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &Service{
		log:       log,
		repo:      repo,
		plans:     plans,
		pending:   pending,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}
