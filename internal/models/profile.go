// Package models содержит доменные структуры WatchHub: учетную запись,
// профиль, тарифы, транзакции оплаты и подписки. Структуры используются
// в бизнес‑логике, хранилище и при сериализации ответов.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли профиля.
const (
	RoleUser  = "usuario"
	RoleAdmin = "admin"
)

// Identity учетная запись для входа: почта и bcrypt‑хэш пароля.
type Identity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile прикладная запись пользователя, один к одному с Identity.
type Profile struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Handle            string    `json:"handle"`
	Email             string    `json:"email"`
	Role              string    `json:"role"`
	PlanID            *int      `json:"plan_id,omitempty"`
	ReproductionsUsed int       `json:"reproductions_used"`
	CreatedAt         time.Time `json:"created_at"`
}

// AdminCode одноразовый код для самостоятельной регистрации администратора.
type AdminCode struct {
	Code   string
	Used   bool
	UsedBy *uuid.UUID
	UsedAt *time.Time
}
