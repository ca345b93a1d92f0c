package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockIntents struct{ mock.Mock }

func (m *MockIntents) New(params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error) {
	args := m.Called(params)
	pi, _ := args.Get(0).(*stripego.PaymentIntent)
	return pi, args.Error(1)
}

func (m *MockIntents) Get(id string, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error) {
	args := m.Called(id, params)
	pi, _ := args.Get(0).(*stripego.PaymentIntent)
	return pi, args.Error(1)
}

const testSecret = "whsec_test_secret"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestClient_CreatePaymentIntent(t *testing.T) {
	ctx := context.Background()
	m := new(MockIntents)
	c := &Client{intents: m}

	m.On("New", mock.MatchedBy(func(p *stripego.PaymentIntentParams) bool {
		return *p.Amount == 999 &&
			*p.Currency == "usd" &&
			*p.AutomaticPaymentMethods.Enabled &&
			p.Metadata[MetaTransactionID] == "watchhub_123" &&
			p.Metadata[MetaPlanID] == "1" &&
			p.Metadata[MetaService] == "WatchHub Streaming" &&
			*p.IdempotencyKey == "idem-1" &&
			p.Context == ctx
	})).Return(&stripego.PaymentIntent{
		ID:           "pi_1",
		ClientSecret: "pi_1_secret_x",
		Status:       stripego.PaymentIntentStatusRequiresPaymentMethod,
		Amount:       999,
		Metadata:     map[string]string{MetaTransactionID: "watchhub_123", MetaPlanID: "1"},
	}, nil)

	intent, err := c.CreatePaymentIntent(ctx, IntentInput{AmountCents: 999, PlanID: 1, TransactionID: "watchhub_123", IdempotencyKey: "idem-1"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_x", intent.ClientSecret)
	assert.Equal(t, "watchhub_123", intent.TransactionID)
	assert.Equal(t, 1, intent.PlanID)
	m.AssertExpectations(t)
}

func TestClient_CreatePaymentIntent_Errors(t *testing.T) {
	m := new(MockIntents)
	c := &Client{intents: m}

	_, err := c.CreatePaymentIntent(context.Background(), IntentInput{AmountCents: 0})
	require.Error(t, err)
	m.AssertNotCalled(t, "New", mock.Anything)

	m.On("New", mock.Anything).Return(nil, &stripego.Error{HTTPStatusCode: 400, Code: stripego.ErrorCodeAmountTooSmall, Msg: "Amount must be at least $0.50 usd"})
	_, err = c.CreatePaymentIntent(context.Background(), IntentInput{AmountCents: 10, TransactionID: "watchhub_1"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "at least")
}

func TestClient_GetPaymentIntent(t *testing.T) {
	m := new(MockIntents)
	c := &Client{intents: m}

	m.On("Get", "pi_ok", mock.Anything).Return(&stripego.PaymentIntent{
		ID:       "pi_ok",
		Status:   stripego.PaymentIntentStatusSucceeded,
		Metadata: map[string]string{MetaTransactionID: "watchhub_9", MetaPlanID: "2"},
	}, nil)

	intent, err := c.GetPaymentIntent(context.Background(), "pi_ok")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, intent.Status)
	assert.Equal(t, "watchhub_9", intent.TransactionID)
	assert.Equal(t, 2, intent.PlanID)

	_, err = c.GetPaymentIntent(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_ParseEvent(t *testing.T) {
	c := &Client{webhookSecret: testSecret}
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"data": {"object": {"id": "pi_1", "object": "payment_intent", "status": "succeeded", "amount": 999,
			"metadata": {"transactionId": "watchhub_123", "planId": "1"}}}
	}`)

	t.Run("valid signature", func(t *testing.T) {
		ev, err := c.ParseEvent(payload, sign(payload, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, EventPaymentSucceeded, ev.Type)
		require.NotNil(t, ev.Intent)
		assert.Equal(t, "pi_1", ev.Intent.ID)
		assert.Equal(t, "watchhub_123", ev.Intent.TransactionID)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := c.ParseEvent(payload, sign(payload, "whsec_other", time.Now()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := c.ParseEvent(payload, sign(payload, testSecret, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("tampered payload", func(t *testing.T) {
		sig := sign(payload, testSecret, time.Now())
		_, err := c.ParseEvent(append([]byte(" "), payload...), sig)
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := c.ParseEvent(payload, "")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("secret not configured", func(t *testing.T) {
		_, err := (&Client{}).ParseEvent(payload, sign(payload, "", time.Now()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("unrelated event has no intent", func(t *testing.T) {
		other := []byte(`{"id":"evt_2","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
		ev, err := c.ParseEvent(other, sign(other, testSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "customer.created", ev.Type)
		assert.Nil(t, ev.Intent)
	})
}
