// Package watchhub собирает HTTP приложение WatchHub: хранилище, кэш, провайдеров
// оплаты и маршруты.
package watchhub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/watchhub/internal/cache"
	"github.com/magabrotheeeer/watchhub/internal/config"
	"github.com/magabrotheeeer/watchhub/internal/lib/jwt"
	"github.com/magabrotheeeer/watchhub/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/media"
	"github.com/magabrotheeeer/watchhub/internal/metrics"
	"github.com/magabrotheeeer/watchhub/internal/migrations"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/paypal"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/services/account"
	"github.com/magabrotheeeer/watchhub/internal/services/auth"
	"github.com/magabrotheeeer/watchhub/internal/services/checkout"
	"github.com/magabrotheeeer/watchhub/internal/services/content"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
	"github.com/magabrotheeeer/watchhub/internal/storage/repository"
)

// App HTTP приложение.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	amqp   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища и провайдеров и готовит HTTP сервер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.watchhub.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{logger: logger, db: db, cache: cacheRedis}

	// уведомления необязательны: без брокера регистрация работает, письма не уходят
	var publisher registration.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqp = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.ch = ch
		publisher = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is not set, notifications are disabled")
	}

	metrics.MustRegister()

	plans := cache.NewPlanCatalog(cacheRedis, db, logger)
	regService := registration.New(
		logger, db, plans,
		cache.NewPendingStore(cacheRedis, cfg.PendingRegistrationTTL),
		cache.NewLocker(cacheRedis),
		publisher,
		cfg.LockTTL,
	)

	stripeClient := stripe.NewClient(cfg.Stripe)
	opts := checkout.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		BrandName:     cfg.PayPalBrandName,
	}
	if cfg.PayPalConfigured() {
		opts.PayPal = paypal.NewClient(cfg.PayPal)
	} else {
		logger.Warn("paypal credentials are not set, paypal checkout is disabled")
	}
	if cfg.StripeConfigured() {
		opts.Stripe = stripeClient
	} else {
		logger.Warn("stripe secret key is not set, stripe checkout is disabled")
	}
	checkoutService := checkout.New(logger, db, plans, regService, opts)

	services := Services{
		Registration: regService,
		Checkout:     checkoutService,
		Auth:         auth.New(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)),
		Account:      account.New(db, logger),
		Plans:        plans,
		Webhooks:     stripeClient,
		MaxUploadMB:  cfg.MediaMaxUploadMB,
	}
	if cfg.MediaConfigured() {
		storage, err := media.New(ctx, cfg.Media)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		services.Media = storage
	}
	var objects content.Objects
	if services.Media != nil {
		objects = services.Media
	}
	services.Content = content.New(db, objects, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down http server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.amqp != nil {
		if err := a.amqp.Close(); err != nil {
			a.logger.Error("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
