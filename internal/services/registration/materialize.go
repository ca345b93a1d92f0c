package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/cache"
	"github.com/magabrotheeeer/watchhub/internal/lib/month"
	"github.com/magabrotheeeer/watchhub/internal/lib/password"
	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// UserData данные формы, которые клиент присылает повторно, если серверная копия истекла.
type UserData struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Nombre        string `json:"nombre"`
	Apellido      string `json:"apellido,omitempty"`
	NombreUsuario string `json:"nombreUsuario,omitempty"`
}

// MaterializeRequest запрос на создание учетной записи после оплаты.
type MaterializeRequest struct {
	TransactionID string
	Data          *UserData
	PaymentMethod string
}

// Account созданная или уже существующая учетная запись.
type Account struct {
	UserID        uuid.UUID `json:"userId"`
	TransactionID string    `json:"transactionId"`
	Existing      bool      `json:"-"`
}

var handleChars = regexp.MustCompile(`[^a-z0-9_.]`)

// Materialize создает identity, профиль, завершает транзакцию и создает подписку.
// Повторный вызов для уже завершенной транзакции возвращает существующего пользователя.
func (s *Service) Materialize(ctx context.Context, req MaterializeRequest) (*Account, error) {
	const op = "registration.Materialize"
	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(ctx)),
		slog.String("transaction_id", req.TransactionID),
		slog.String("method", req.PaymentMethod),
	)
	if req.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}

	lockKey := "tx:" + req.TransactionID
	token, err := s.locker.TryLock(ctx, lockKey, s.lockTTL)
	if errors.Is(err, cache.ErrLocked) {
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey, token); err != nil {
			log.Warn("failed to release lock", sl.Err(err))
		}
	}()

	tx, err := s.repo.GetTransaction(ctx, req.TransactionID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch tx.Status {
	case models.TransactionFailed:
		metrics.IncRegistration("materialize", "payment_failed")
		return nil, ErrPaymentFailed
	case models.TransactionCompleted:
		if tx.UserID != nil {
			log.Info("transaction already materialized", slog.String("user_id", tx.UserID.String()))
			s.dropPending(ctx, log, tx.ID)
			return &Account{UserID: *tx.UserID, TransactionID: tx.ID, Existing: true}, nil
		}
	}

	reg, err := s.pending.Get(ctx, tx.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	switch {
	case reg != nil && req.Data != nil:
		if err := s.applyRecovery(ctx, log, reg, req.Data); err != nil {
			return nil, err
		}
	case reg == nil:
		if req.Data == nil {
			metrics.IncRegistration("materialize", "expired")
			return nil, ErrRegistrationExpired
		}
		reg, err = s.fromUserData(tx, req.Data)
		if err != nil {
			return nil, err
		}
		log.Info("using client supplied registration data")
	}

	if !reg.PaymentConfirmed && tx.Status != models.TransactionCompleted {
		metrics.IncRegistration("materialize", "not_confirmed")
		return nil, ErrPaymentNotConfirmed
	}

	planID := tx.PlanID
	userID, err := s.createAccount(ctx, log, reg.Email, reg.PasswordHash, &models.Profile{
		Name:   reg.Name,
		Handle: reg.Handle,
		Email:  reg.Email,
		Role:   models.RoleUser,
		PlanID: &planID,
	})
	if err != nil {
		metrics.IncRegistration("materialize", "account_failed")
		return nil, err
	}
	log = log.With(slog.String("user_id", userID.String()))

	providerRef := reg.ProviderRef
	if providerRef == "" && tx.ProviderRef != nil {
		providerRef = *tx.ProviderRef
	}
	txDone := s.completeTransaction(ctx, log, tx, userID, providerRef)
	subDone := s.createSubscription(ctx, log, tx, userID)

	if txDone && subDone {
		s.dropPending(ctx, log, tx.ID)
	}

	s.notifyWelcome(ctx, log, models.WelcomeMessage{
		Email:         reg.Email,
		Name:          reg.Name,
		PlanID:        tx.PlanID,
		TransactionID: tx.ID,
	})

	log.Info("account materialized", slog.Bool("transaction_completed", txDone), slog.Bool("subscription_created", subDone))
	metrics.IncRegistration("materialize", "ok")
	return &Account{UserID: userID, TransactionID: tx.ID}, nil
}

// completeTransaction сбой здесь не откатывает учетную запись, только логируется.
func (s *Service) completeTransaction(ctx context.Context, log *slog.Logger, tx *models.Transaction, userID uuid.UUID, providerRef string) bool {
	if tx.Status == models.TransactionPending {
		ok, err := s.repo.CompleteTransaction(ctx, tx.ID, &userID, providerRef, s.now())
		if err != nil {
			log.Error("failed to complete transaction", sl.Err(err))
			return false
		}
		if ok {
			return true
		}
		log.Info("transaction completed concurrently, attaching user")
	}

	attached, err := s.repo.AttachTransactionUser(ctx, tx.ID, userID)
	if err != nil {
		log.Error("failed to attach user to transaction", sl.Err(err))
		return false
	}
	if !attached {
		log.Warn("transaction already has a user or is not completada")
	}
	return attached
}

// createSubscription тариф подписки всегда берется из транзакции.
func (s *Service) createSubscription(ctx context.Context, log *slog.Logger, tx *models.Transaction, userID uuid.UUID) bool {
	start := s.now()
	created, err := s.repo.CreateSubscription(ctx, &models.Subscription{
		UserID:        userID,
		PlanID:        tx.PlanID,
		TransactionID: tx.ID,
		Status:        models.SubscriptionActive,
		StartAt:       start,
		EndAt:         month.Next(start),
	})
	if err != nil {
		log.Error("failed to create subscription", sl.Err(err))
		return false
	}
	if !created {
		log.Info("subscription for transaction already exists")
	}
	return true
}

func (s *Service) fromUserData(tx *models.Transaction, data *UserData) (*models.PendingRegistration, error) {
	email := strings.ToLower(strings.TrimSpace(data.Email))
	name := strings.TrimSpace(strings.TrimSpace(data.Nombre) + " " + strings.TrimSpace(data.Apellido))
	if email == "" || data.Password == "" || strings.TrimSpace(data.Nombre) == "" {
		return nil, ErrMissingUserData
	}

	raw := data.NombreUsuario
	if strings.TrimSpace(raw) == "" {
		raw, _, _ = strings.Cut(email, "@")
		raw = handleChars.ReplaceAllString(raw, "_")
	}
	handle, err := normalizeHandle(raw)
	if err != nil {
		return nil, err
	}

	hash, err := password.GetHash(data.Password)
	if err != nil {
		return nil, err
	}
	return &models.PendingRegistration{
		TransactionID: tx.ID,
		Name:          name,
		Handle:        handle,
		Email:         email,
		PasswordHash:  hash,
		PlanID:        tx.PlanID,
		PaymentMethod: tx.PaymentMethod,
		CreatedAt:     s.now(),
	}, nil
}

// applyRecovery переносит в серверную копию handle и имя, исправленные пользователем
// после неудачной попытки. Почта и пароль остаются из исходной формы.
func (s *Service) applyRecovery(ctx context.Context, log *slog.Logger, reg *models.PendingRegistration, data *UserData) error {
	changed := false
	if strings.TrimSpace(data.NombreUsuario) != "" {
		handle, err := normalizeHandle(data.NombreUsuario)
		if err != nil {
			return err
		}
		changed = changed || handle != reg.Handle
		reg.Handle = handle
	}
	if nombre := strings.TrimSpace(data.Nombre); nombre != "" {
		name := strings.TrimSpace(nombre + " " + strings.TrimSpace(data.Apellido))
		changed = changed || name != reg.Name
		reg.Name = name
	}
	if !changed {
		return nil
	}
	if err := s.pending.Save(ctx, reg); err != nil {
		log.Warn("failed to save corrected registration data", sl.Err(err))
	}
	log.Info("registration data corrected on recovery")
	return nil
}

func normalizeHandle(raw string) (string, error) {
	handle := strings.ToLower(strings.TrimSpace(raw))
	if len(handle) < 3 || strings.ContainsAny(handle, " \t\r\n") {
		return "", fmt.Errorf("%w: invalid handle", ErrInvalidForm)
	}
	return handle, nil
}

func (s *Service) dropPending(ctx context.Context, log *slog.Logger, transactionID string) {
	if err := s.pending.Delete(context.WithoutCancel(ctx), transactionID); err != nil {
		log.Warn("failed to delete pending registration", sl.Err(err))
	}
}

func (s *Service) notifyWelcome(ctx context.Context, log *slog.Logger, msg models.WelcomeMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), rabbitmq.RoutingWelcome, msg); err != nil {
		log.Warn("failed to publish welcome notification", sl.Err(err))
	}
}
