// Package sender собирает процесс отправки писем из очередей уведомлений.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/watchhub/internal/config"
	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/watchhub/internal/services/sender"
)

// App приложение отправки писем.
type App struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	service *senderservice.Service
	logger  *slog.Logger
}

// New подключается к брокеру и настраивает SMTP транспорт.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		conn:    conn,
		ch:      ch,
		service: senderservice.New(smtp.NewTransport(cfg.SMTP, logger), logger),
		logger:  logger,
	}, nil
}

// Run читает очереди до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	handlers := map[string]func(context.Context, []byte) error{
		rabbitmq.RoutingUpcoming: a.service.SendExpiringSubscription,
		rabbitmq.RoutingWelcome:  a.service.SendWelcome,
	}
	for _, q := range rabbitmq.NotificationQueues() {
		handle := handlers[q.RoutingKey]
		err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, q.QueueName, func(body []byte) error {
			return handle(ctx, body)
		})
		if err != nil {
			a.logger.Error("failed to start consumer", slog.String("queue", q.QueueName), sl.Err(err))
			return err
		}
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
