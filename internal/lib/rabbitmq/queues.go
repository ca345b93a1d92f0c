package rabbitmq

// Exchange direct-обменник, через который идут все уведомления.
const Exchange = "notifications"

// Ключи маршрутизации уведомлений.
const (
	RoutingUpcoming = "upcoming"
	RoutingWelcome  = "welcome"
)

const prefetch = 10

// QueueConfig связывает очередь с ключом маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationQueues очереди, которые читает сервис отправки писем.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notification.upcoming", RoutingKey: RoutingUpcoming},
		{QueueName: "notification.welcome", RoutingKey: RoutingWelcome},
	}
}
