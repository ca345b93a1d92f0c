package models

import "time"

// PendingRegistration данные формы регистрации, ожидающие оплаты.
// Хранится на сервере по идентификатору транзакции, пароль только в виде хэша.
type PendingRegistration struct {
	TransactionID    string    `json:"transaction_id"`
	Name             string    `json:"name"`
	Handle           string    `json:"handle"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"password_hash"`
	PlanID           int       `json:"plan_id"`
	PaymentMethod    string    `json:"payment_method"`
	PaymentConfirmed bool      `json:"payment_confirmed"`
	ProviderRef      string    `json:"provider_ref,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// WelcomeMessage уведомление о созданной учетной записи.
type WelcomeMessage struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	PlanID        int    `json:"plan_id"`
	TransactionID string `json:"transaction_id"`
}
