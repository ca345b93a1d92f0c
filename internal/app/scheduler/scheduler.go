// Package scheduler собирает фоновый процесс: истечение подписок и публикация
// напоминаний об окончании.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/watchhub/internal/config"
	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	schedulerservice "github.com/magabrotheeeer/watchhub/internal/services/scheduler"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	service        *schedulerservice.Service
	db             *repository.Storage
	conn           *amqp.Connection
	ch             *amqp.Channel
	logger         *slog.Logger
	expireInterval time.Duration
	notifyInterval time.Duration
}

func waitForDB(ctx context.Context, db *repository.Storage) error {
	var err error
	for range 10 {
		if err = repository.CheckDatabaseReady(ctx, db); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.scheduler.New"

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.MustRegister()

	return &App{
		service:        schedulerservice.New(db, rabbitmq.NewPublisher(ch), logger),
		db:             db,
		conn:           conn,
		ch:             ch,
		logger:         logger,
		expireInterval: cfg.ExpireInterval,
		notifyInterval: cfg.NotifyInterval,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает задачи и ждет отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go a.service.RunExpire(ctx, a.expireInterval)
	go a.service.RunNotify(ctx, a.notifyInterval)

	<-ctx.Done()
	a.logger.Info("shutting down scheduler service")

	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
