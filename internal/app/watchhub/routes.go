package watchhub

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/watchhub/internal/http/handlers/account/reproductions"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/account/subscription"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/account/transactions"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/contentcreate"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/contentlist"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/contentread"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/contentremove"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/contentupdate"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/mediaremove"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/admin/mediaupload"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/health"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/pago/cancel"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/pago/success"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/payment/paypalcapture"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/payment/paypalorder"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/payment/stripeconfirm"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/payment/stripeintent"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/plans/list"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/registration/begin"
	"github.com/magabrotheeeer/watchhub/internal/http/handlers/registration/complete"
	"github.com/magabrotheeeer/watchhub/internal/http/middlewarectx"
	"github.com/magabrotheeeer/watchhub/internal/media"
	"github.com/magabrotheeeer/watchhub/internal/models"
	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/services/account"
	"github.com/magabrotheeeer/watchhub/internal/services/auth"
	"github.com/magabrotheeeer/watchhub/internal/services/checkout"
	"github.com/magabrotheeeer/watchhub/internal/services/content"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

// Services зависимости маршрутов.
type Services struct {
	Registration *registration.Service
	Checkout     *checkout.Service
	Auth         *auth.Service
	Account      *account.Service
	Plans        list.Service
	Webhooks     *stripe.Client
	Content      *content.Service
	// Media nil, если хранилище не настроено, тогда маршруты загрузки не регистрируются.
	Media       *media.Storage
	MaxUploadMB int64
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New().ServeHTTP)
		r.Get("/plans", list.New(logger, s.Plans).ServeHTTP)

		r.Post("/registrations", begin.New(logger, s.Registration).ServeHTTP)
		r.Post("/auth/register-with-payment", complete.New(logger, s.Registration).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)

		r.Get("/pago/success", success.New(logger, s.Checkout, s.Registration).ServeHTTP)
		r.Get("/pago/cancel", cancel.New(logger))

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/payments/paypal/create-order", paypalorder.New(logger, s.Checkout).ServeHTTP)
			r.Post("/payments/paypal/capture-order", paypalcapture.New(logger, s.Checkout).ServeHTTP)
			r.Post("/payments/stripe/create-payment-intent", stripeintent.New(logger, s.Checkout).ServeHTTP)
			r.Post("/payments/stripe/confirm-payment", stripeconfirm.New(logger, s.Checkout).ServeHTTP)
		})

		// Вебхук без аутентификации, подлинность проверяется подписью
		r.Post("/webhooks/stripe", paymentwebhook.New(logger, s.Webhooks, s.Registration).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Get("/account/subscription", subscription.New(logger, s.Account).ServeHTTP)
			r.Get("/account/transactions", transactions.New(logger, s.Account).ServeHTTP)
			r.Post("/account/reproductions", reproductions.New(logger, s.Account).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin))
				r.Get("/admin/contents", contentlist.New(logger, s.Content).ServeHTTP)
				r.Post("/admin/contents", contentcreate.New(logger, s.Content).ServeHTTP)
				r.Get("/admin/contents/{id}", contentread.New(logger, s.Content).ServeHTTP)
				r.Put("/admin/contents/{id}", contentupdate.New(logger, s.Content).ServeHTTP)
				r.Delete("/admin/contents/{id}", contentremove.New(logger, s.Content).ServeHTTP)

				if s.Media != nil {
					r.Post("/admin/media", mediaupload.New(logger, s.Media, s.MaxUploadMB).ServeHTTP)
					r.Delete("/admin/media", mediaremove.New(logger, s.Media).ServeHTTP)
				}
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
