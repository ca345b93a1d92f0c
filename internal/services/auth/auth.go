// Package auth содержит вход по почте и паролю и проверку JWT сессии.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/watchhub/internal/lib/jwt"
	"github.com/magabrotheeeer/watchhub/internal/lib/password"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// ErrInvalidCredentials неверная почта или пароль. Причина наружу не раскрывается.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для чтения учетных записей.
type UserRepository interface {
	// GetIdentityByEmail возвращает учетную запись по почте или repository.ErrNotFound.
	GetIdentityByEmail(ctx context.Context, email string) (*models.Identity, error)

	// GetProfile возвращает профиль по id учетной записи.
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
}

// Session выданный токен и данные профиля.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Handle string `json:"handle"`
	Role   string `json:"role"`
}

// Principal пользователь, извлеченный из токена.
type Principal struct {
	UserID uuid.UUID
	Handle string
	Role   string
}

// Service отвечает за авторизацию и валидацию JWT.
type Service struct {
	users    UserRepository
	jwtMaker jwt.Maker
}

// New создает новый экземпляр Service.
func New(users UserRepository, jwtMaker jwt.Maker) *Service {
	return &Service{
		users:    users,
		jwtMaker: jwtMaker,
	}
}

// Login проверяет пароль и выпускает JWT с id, handle и ролью пользователя.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*Session, error) {
	const op = "auth.Login"

	identity, err := s.users.GetIdentityByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(identity.PasswordHash, rawPassword); err != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.users.GetProfile(ctx, identity.ID)
	if errors.Is(err, repository.ErrNotFound) {
		// учетная запись без профиля остается после неудачной регистрации
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(profile.ID.String(), profile.Handle, profile.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{
		Token:  token,
		UserID: profile.ID.String(),
		Handle: profile.Handle,
		Role:   profile.Role,
	}, nil
}

// ValidateToken проверяет JWT и возвращает пользователя из его claims.
func (s *Service) ValidateToken(token string) (*Principal, error) {
	const op = "auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%s: subject: %w", op, err)
	}
	return &Principal{UserID: id, Handle: claims.Handle, Role: claims.Role}, nil
}
