package paymentwebhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/watchhub/internal/paymentprovider/stripe"
	"github.com/magabrotheeeer/watchhub/internal/services/registration"
)

type ParserMock struct {
	mock.Mock
}

func (m *ParserMock) ParseEvent(payload []byte, signature string) (*stripe.Event, error) {
	args := m.Called(payload, signature)
	ev, _ := args.Get(0).(*stripe.Event)
	return ev, args.Error(1)
}

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CompleteFromWebhook(ctx context.Context, transactionID, providerRef string) error {
	return m.Called(ctx, transactionID, providerRef).Error(0)
}

func (m *ServiceMock) FailFromWebhook(ctx context.Context, transactionID, providerRef string) error {
	return m.Called(ctx, transactionID, providerRef).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func intentEvent(typ, txID string) *stripe.Event {
	return &stripe.Event{ID: "evt_1", Type: typ, Intent: &stripe.Intent{ID: "pi_1", Status: "succeeded", TransactionID: txID}}
}

func TestHandler_ServeHTTP(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)

	tests := []struct {
		name       string
		setup      func(p *ParserMock, s *ServiceMock)
		wantStatus int
		wantError  string
	}{
		{
			name: "payment succeeded",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentSucceeded, "watchhub_1"), nil).Once()
				s.On("CompleteFromWebhook", mock.Anything, "watchhub_1", "pi_1").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "payment failed",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentFailed, "watchhub_2"), nil).Once()
				s.On("FailFromWebhook", mock.Anything, "watchhub_2", "pi_1").Return(nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "other event acknowledged",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(&stripe.Event{ID: "evt_2", Type: "charge.refunded"}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "intent without metadata",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentSucceeded, ""), nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown transaction acknowledged",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentSucceeded, "watchhub_x"), nil).Once()
				s.On("CompleteFromWebhook", mock.Anything, "watchhub_x", "pi_1").
					Return(fmt.Errorf("registration.CompleteFromWebhook: %w", registration.ErrTransactionNotFound)).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "intent of another payment acknowledged",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentSucceeded, "watchhub_y"), nil).Once()
				s.On("CompleteFromWebhook", mock.Anything, "watchhub_y", "pi_1").
					Return(fmt.Errorf("registration.CompleteFromWebhook: %w", registration.ErrProviderRefMismatch)).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "invalid signature",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").
					Return(nil, fmt.Errorf("stripe.ParseEvent: %w", stripe.ErrInvalidSignature)).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "Webhook Error: invalid signature",
		},
		{
			name: "processing error",
			setup: func(p *ParserMock, s *ServiceMock) {
				p.On("ParseEvent", payload, "t=1,v1=sig").Return(intentEvent(stripe.EventPaymentSucceeded, "watchhub_3"), nil).Once()
				s.On("CompleteFromWebhook", mock.Anything, "watchhub_3", "pi_1").Return(errors.New("db down")).Once()
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "webhook processing failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser := new(ParserMock)
			svc := new(ServiceMock)
			tt.setup(parser, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
			req.Header.Set("Stripe-Signature", "t=1,v1=sig")
			rec := httptest.NewRecorder()

			New(newNoopLogger(), parser, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			} else {
				assert.Equal(t, true, got["received"])
			}
			parser.AssertExpectations(t)
			svc.AssertExpectations(t)
		})
	}
}
