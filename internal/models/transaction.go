package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы транзакции: pendiente -> completada | fallido, конечные статусы не меняются.
const (
	TransactionPending   = "pendiente"
	TransactionCompleted = "completada"
	TransactionFailed    = "fallido"
)

// Способы оплаты.
const (
	MethodStripe = "stripe"
	MethodPayPal = "paypal"
)

// Transaction одна попытка оплаты. ID это корреляционный идентификатор вида watchhub_<ulid>.
type Transaction struct {
	ID             string          `json:"id"`
	UserID         *uuid.UUID      `json:"user_id,omitempty"`
	PlanID         int             `json:"plan_id"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  string          `json:"payment_method"`
	Status         string          `json:"status"`
	ProviderRef    *string         `json:"provider_ref,omitempty"`
	IdempotencyKey uuid.UUID       `json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}

// IsPending сообщает, ожидает ли транзакция оплаты.
func (t *Transaction) IsPending() bool {
	return t.Status == TransactionPending
}
