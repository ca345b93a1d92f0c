// Package apierr отображает ошибки регистрации, оплаты и каталога в HTTP статус и текст ответа.
package apierr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/watchhub/internal/http/response"
	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/services/checkout"
	"github.com/magabrotheeeer/watchhub/internal/services/content"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

var statuses = []struct {
	err    error
	status int
}{
	{registration.ErrInvalidForm, http.StatusBadRequest},
	{registration.ErrMissingUserData, http.StatusBadRequest},
	{registration.ErrMissingTransactionID, http.StatusBadRequest},
	{registration.ErrInvalidAdminCode, http.StatusForbidden},
	{registration.ErrPlanNotFound, http.StatusNotFound},
	{registration.ErrTransactionNotFound, http.StatusNotFound},
	{registration.ErrProviderRefMismatch, http.StatusBadRequest},
	{registration.ErrHandleTaken, http.StatusConflict},
	{registration.ErrEmailTaken, http.StatusConflict},
	{registration.ErrInProgress, http.StatusConflict},
	{registration.ErrPaymentNotConfirmed, http.StatusPaymentRequired},
	{registration.ErrPaymentFailed, http.StatusPaymentRequired},
	{registration.ErrRegistrationExpired, http.StatusGone},

	{checkout.ErrMissingFields, http.StatusBadRequest},
	{checkout.ErrMissingOrderID, http.StatusBadRequest},
	{checkout.ErrMissingPaymentIntentID, http.StatusBadRequest},
	{checkout.ErrAmountMismatch, http.StatusBadRequest},
	{checkout.ErrPlanMismatch, http.StatusBadRequest},
	{checkout.ErrMethodMismatch, http.StatusBadRequest},
	{checkout.ErrOrderMismatch, http.StatusBadRequest},
	{checkout.ErrPaymentNotSucceeded, http.StatusBadRequest},
	{checkout.ErrPlanNotFound, http.StatusNotFound},
	{checkout.ErrTransactionNotFound, http.StatusNotFound},
	{checkout.ErrTransactionNotPending, http.StatusConflict},
	{checkout.ErrMissingApprovalLink, http.StatusInternalServerError},
	{checkout.ErrProviderNotConfigured, http.StatusServiceUnavailable},

	{content.ErrInvalid, http.StatusBadRequest},
	{content.ErrNotFound, http.StatusNotFound},

	{context.DeadlineExceeded, http.StatusGatewayTimeout},
}

// Status возвращает HTTP статус и текст для ошибки. Неизвестные ошибки дают 500
// без подробностей.
func Status(err error) (int, string) {
	var notCompleted *checkout.NotCompletedError
	if errors.As(err, &notCompleted) {
		return http.StatusBadRequest, notCompleted.Error()
	}
	var provider *checkout.ProviderError
	if errors.As(err, &provider) {
		return http.StatusBadGateway, provider.Message
	}

	for _, s := range statuses {
		if errors.Is(err, s.err) {
			if errors.Is(err, registration.ErrMissingUserData) {
				return s.status, "Faltan datos del usuario (email, password, nombre)"
			}
			if errors.Is(err, registration.ErrInvalidForm) || errors.Is(err, content.ErrInvalid) {
				return s.status, err.Error()
			}
			return s.status, s.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal error"
}

// Write пишет ответ с ошибкой, 5xx логируются как error, остальные как warn.
func Write(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, msg := Status(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", slog.Int("status", status), sl.Err(err))
	} else {
		log.Warn("request rejected", slog.Int("status", status), sl.Err(err))
	}
	render.Status(r, status)
	render.JSON(w, r, response.Error(msg))
}
