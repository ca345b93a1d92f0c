// Package cancel реализует GET /api/v1/pago/cancel.
package cancel

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

// New возвращает обработчик страницы отмены. Транзакция не меняется.
//
// @Summary Возврат после отмены оплаты
// @Tags Registration
// @Produce  json
// @Param method query string false "paypal или stripe"
// @Param transaction query string false "Идентификатор транзакции"
// @Success 200 {object} registration.CancelNotice
// @Router /pago/cancel [get]
func New(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.pago.cancel"
		q := r.URL.Query()
		notice := registration.Cancel(q.Get("method"), q.Get("transaction"))
		log.Info("payment cancelled by user",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", notice.Method),
			slog.String("transaction_id", notice.TransactionID),
		)
		render.JSON(w, r, response.StatusOKWithData(notice))
	}
}
