package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/watchhub/internal/lib/correlation"
	"github.com/magabrotheeeer/watchhub/internal/lib/password"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// Form данные формы регистрации.
type Form struct {
	Name            string `json:"name" validate:"required"`
	Handle          string `json:"handle" validate:"required,min=3,max=32"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"omitempty,oneof=usuario admin"`
	AdminCode       string `json:"adminCode,omitempty"`
	PlanID          int    `json:"planId,omitempty" validate:"omitempty,min=1"`
	PaymentMethod   string `json:"paymentMethod,omitempty" validate:"omitempty,oneof=stripe paypal"`
}

// BeginResult результат отправки формы. Для администратора заполнен только UserID.
type BeginResult struct {
	UserID        *uuid.UUID       `json:"userId,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	PlanID        int              `json:"planId,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	PaymentMethod string           `json:"paymentMethod,omitempty"`
}

// normalize приводит форму к каноническому виду и проверяет правила, зависящие от роли.
func (f *Form) normalize() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Handle = strings.ToLower(strings.TrimSpace(f.Handle))
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Role = strings.TrimSpace(f.Role)
	if f.Role == "" {
		f.Role = models.RoleUser
	}

	switch {
	case f.Name == "":
		return fmt.Errorf("%w: name is required", ErrInvalidForm)
	case len(f.Handle) < 3:
		return fmt.Errorf("%w: handle must be at least 3 characters", ErrInvalidForm)
	case strings.ContainsAny(f.Handle, " \t\r\n"):
		return fmt.Errorf("%w: handle must not contain spaces", ErrInvalidForm)
	case len(f.Password) < 6:
		return fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidForm)
	case f.Password != f.ConfirmPassword:
		return fmt.Errorf("%w: passwords do not match", ErrInvalidForm)
	}

	switch f.Role {
	case models.RoleAdmin:
		if strings.TrimSpace(f.AdminCode) == "" {
			return fmt.Errorf("%w: admin code is required", ErrInvalidForm)
		}
	case models.RoleUser:
		if f.PlanID <= 0 {
			return fmt.Errorf("%w: plan is required", ErrInvalidForm)
		}
		if f.PaymentMethod != models.MethodStripe && f.PaymentMethod != models.MethodPayPal {
			return fmt.Errorf("%w: payment method must be stripe or paypal", ErrInvalidForm)
		}
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidForm, f.Role)
	}
	return nil
}

// Begin принимает форму регистрации. Администратор создается сразу по коду,
// для пользователя создается транзакция pendiente и отложенная регистрация.
func (s *Service) Begin(ctx context.Context, form Form) (*BeginResult, error) {
	const op = "registration.Begin"
	log := s.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(ctx)))

	if err := form.normalize(); err != nil {
		return nil, err
	}

	taken, err := s.repo.HandleExists(ctx, form.Handle)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		metrics.IncRegistration("begin", "handle_taken")
		return nil, ErrHandleTaken
	}
	taken, err = s.repo.EmailExists(ctx, form.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if taken {
		metrics.IncRegistration("begin", "email_taken")
		return nil, ErrEmailTaken
	}

	if form.Role == models.RoleAdmin {
		return s.registerAdmin(ctx, log, form)
	}

	plan, err := s.plans.GetPlan(ctx, form.PlanID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := password.GetHash(form.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	tx := &models.Transaction{
		ID:             correlation.NewTransactionID(),
		PlanID:         plan.ID,
		Amount:         plan.Price,
		PaymentMethod:  form.PaymentMethod,
		Status:         models.TransactionPending,
		IdempotencyKey: uuid.New(),
	}
	if _, err := s.repo.CreatePendingTransaction(ctx, tx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reg := &models.PendingRegistration{
		TransactionID: tx.ID,
		Name:          form.Name,
		Handle:        form.Handle,
		Email:         form.Email,
		PasswordHash:  hash,
		PlanID:        plan.ID,
		PaymentMethod: form.PaymentMethod,
		CreatedAt:     s.now(),
	}
	if err := s.pending.Save(ctx, reg); err != nil {
		log.Error("failed to save pending registration", slog.String("transaction_id", tx.ID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("registration started",
		slog.String("transaction_id", tx.ID),
		slog.Int("plan_id", plan.ID),
		slog.String("method", form.PaymentMethod),
	)
	metrics.IncRegistration("begin", "ok")
	amount := plan.Price
	return &BeginResult{
		TransactionID: tx.ID,
		PlanID:        plan.ID,
		Amount:        &amount,
		PaymentMethod: form.PaymentMethod,
	}, nil
}

// registerAdmin создает администратора без оплаты. Код захватывается до создания
// учетной записи и освобождается, если ее создать не удалось.
func (s *Service) registerAdmin(ctx context.Context, log *slog.Logger, form Form) (*BeginResult, error) {
	const op = "registration.registerAdmin"
	code := strings.TrimSpace(form.AdminCode)

	claimed, err := s.repo.ClaimAdminCode(ctx, code, s.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !claimed {
		metrics.IncRegistration("admin", "invalid_code")
		return nil, ErrInvalidAdminCode
	}

	release := func() {
		if err := s.repo.ReleaseAdminCode(context.WithoutCancel(ctx), code); err != nil {
			log.Error("failed to release admin code", sl.Err(err))
		}
	}

	hash, err := password.GetHash(form.Password)
	if err != nil {
		release()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	userID, err := s.createAccount(ctx, log, form.Email, hash, &models.Profile{
		Name:   form.Name,
		Handle: form.Handle,
		Email:  form.Email,
		Role:   models.RoleAdmin,
	})
	if err != nil {
		release()
		return nil, err
	}

	if err := s.repo.AssignAdminCode(ctx, code, userID); err != nil {
		log.Error("failed to record admin code owner", slog.String("user_id", userID.String()), sl.Err(err))
	}
	log.Info("admin registered", slog.String("user_id", userID.String()))
	metrics.IncRegistration("admin", "ok")
	return &BeginResult{UserID: &userID}, nil
}

// createAccount создает identity и профиль. Если профиль создать не удалось,
// identity удаляется, чтобы учетная запись не осталась без профиля.
func (s *Service) createAccount(ctx context.Context, log *slog.Logger, email, hash string, profile *models.Profile) (uuid.UUID, error) {
	const op = "registration.createAccount"

	userID, err := s.repo.CreateIdentity(ctx, email, hash)
	if errors.Is(err, repository.ErrEmailTaken) {
		return uuid.Nil, ErrEmailTaken
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: create identity: %w", op, err)
	}

	profile.ID = userID
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		log.Error("profile insert failed, deleting identity", slog.String("user_id", userID.String()), sl.Err(err))
		if delErr := s.repo.DeleteIdentity(context.WithoutCancel(ctx), userID); delErr != nil {
			log.Error("failed to delete identity", slog.String("user_id", userID.String()), sl.Err(delErr))
			return uuid.Nil, fmt.Errorf("%s: %w", op, errors.Join(err, delErr))
		}
		metrics.IncCompensation()
		if errors.Is(err, repository.ErrHandleTaken) {
			return uuid.Nil, ErrHandleTaken
		}
		return uuid.Nil, fmt.Errorf("%s: create profile: %w", op, err)
	}
	return userID, nil
}
