package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы подписки.
const (
	SubscriptionActive    = "activa"
	SubscriptionCancelled = "cancelada"
	SubscriptionExpired   = "vencida"
)

// Subscription доступ пользователя к каталогу по тарифу.
// Создается только после того, как исходная транзакция стала completada.
type Subscription struct {
	ID            int       `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	PlanID        int       `json:"plan_id"`
	TransactionID string    `json:"transaction_id"`
	Status        string    `json:"status"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
}

// ExpiringSubscription данные для уведомления о скором окончании подписки.
type ExpiringSubscription struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	PlanName string    `json:"plan_name"`
	EndAt    time.Time `json:"end_at"`
}
