package complete

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Materialize(ctx context.Context, req registration.MaterializeRequest) (*registration.Account, error) {
	args := m.Called(ctx, req)
	acc, _ := args.Get(0).(*registration.Account)
	return acc, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHandler_ServeHTTP(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name       string
		body       string
		setup      func(m *ServiceMock)
		wantStatus int
		wantError  string
	}{
		{
			name: "server side registration",
			body: `{"transactionId":"watchhub_01","paymentMethod":"paypal"}`,
			setup: func(m *ServiceMock) {
				m.On("Materialize", mock.Anything, registration.MaterializeRequest{
					TransactionID: "watchhub_01", PaymentMethod: "paypal",
				}).Return(&registration.Account{UserID: userID, TransactionID: "watchhub_01"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "recovery with user data",
			body: `{"transactionId":"watchhub_01","paymentMethod":"stripe","userData":{"email":"ana@example.com","password":"secret123","nombre":"Ana"}}`,
			setup: func(m *ServiceMock) {
				m.On("Materialize", mock.Anything, mock.MatchedBy(func(r registration.MaterializeRequest) bool {
					return r.Data != nil && r.Data.Email == "ana@example.com" && r.Data.Nombre == "Ana"
				})).Return(&registration.Account{UserID: userID, TransactionID: "watchhub_01"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "payment not confirmed",
			body: `{"transactionId":"watchhub_01"}`,
			setup: func(m *ServiceMock) {
				m.On("Materialize", mock.Anything, mock.Anything).Return(nil, registration.ErrPaymentNotConfirmed).Once()
			},
			wantStatus: http.StatusPaymentRequired,
			wantError:  "payment is not confirmed",
		},
		{
			name: "missing user data",
			body: `{"transactionId":"watchhub_01","userData":{"email":"ana@example.com"}}`,
			setup: func(m *ServiceMock) {
				m.On("Materialize", mock.Anything, mock.Anything).Return(nil, registration.ErrMissingUserData).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Faltan datos del usuario (email, password, nombre)",
		},
		{
			name: "expired",
			body: `{"transactionId":"watchhub_01"}`,
			setup: func(m *ServiceMock) {
				m.On("Materialize", mock.Anything, mock.Anything).Return(nil, registration.ErrRegistrationExpired).Once()
			},
			wantStatus: http.StatusGone,
			wantError:  "pending registration expired",
		},
		{
			name:       "invalid json",
			body:       `[`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.setup != nil {
				tt.setup(svc)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register-with-payment", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				data := got["data"].(map[string]any)
				assert.Equal(t, true, data["success"])
				assert.Equal(t, userID.String(), data["userId"])
				assert.Equal(t, MessageRegistered, data["message"])
			}
			svc.AssertExpectations(t)
		})
	}
}
