// Package stripe обертка над stripe-go для PaymentIntent и подписанных вебхуков.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/magabrotheeeer/watchhub/internal/config"
)

// Ключи metadata, по которым вебхук находит транзакцию.
const (
	MetaTransactionID = "transactionId"
	MetaPlanID        = "planId"
	MetaService       = "service"

	serviceName = "WatchHub Streaming"
)

// StatusSucceeded статус оплаченного PaymentIntent.
const StatusSucceeded = string(stripego.PaymentIntentStatusSucceeded)

// intentAPI подмножество paymentintent.Client.
type intentAPI interface {
	New(params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
	Get(id string, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
}

// Client создает и читает PaymentIntent.
type Client struct {
	intents       intentAPI
	webhookSecret string
}

// IntentInput параметры нового PaymentIntent.
type IntentInput struct {
	AmountCents    int64
	PlanID         int
	TransactionID  string
	IdempotencyKey string
}

// Intent то, что сервису нужно знать о PaymentIntent.
type Intent struct {
	ID            string
	ClientSecret  string
	Status        string
	AmountCents   int64
	TransactionID string
	PlanID        int
}

// APIError отказ Stripe с текстом для пользователя.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("stripe: status %d: %s", e.StatusCode, e.Message)
}

// NewClient создает клиент с ограниченным числом сетевых повторов stripe-go.
// Повторы идут с тем же Idempotency-Key.
func NewClient(cfg config.Stripe) *Client {
	backends := stripego.NewBackendsWithConfig(&stripego.BackendConfig{
		MaxNetworkRetries: stripego.Int64(cfg.StripeMaxRetries),
	})
	sc := client.New(cfg.StripeSecretKey, backends)
	return &Client{intents: sc.PaymentIntents, webhookSecret: cfg.StripeWebhookSecret}
}

// CreatePaymentIntent создает PaymentIntent в долларах с автоматическим выбором способа оплаты.
func (c *Client) CreatePaymentIntent(ctx context.Context, in IntentInput) (*Intent, error) {
	const op = "stripe.CreatePaymentIntent"
	if in.AmountCents <= 0 {
		return nil, fmt.Errorf("%s: amount must be positive", op)
	}

	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(in.AmountCents),
		Currency: stripego.String(string(stripego.CurrencyUSD)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata(MetaPlanID, strconv.Itoa(in.PlanID))
	params.AddMetadata(MetaTransactionID, in.TransactionID)
	params.AddMetadata(MetaService, serviceName)
	if in.IdempotencyKey != "" {
		params.SetIdempotencyKey(in.IdempotencyKey)
	}

	pi, err := c.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, convertErr(err))
	}
	return toIntent(pi), nil
}

// GetPaymentIntent читает PaymentIntent по id.
func (c *Client) GetPaymentIntent(ctx context.Context, id string) (*Intent, error) {
	const op = "stripe.GetPaymentIntent"
	if id == "" {
		return nil, fmt.Errorf("%s: empty payment intent id", op)
	}
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	pi, err := c.intents.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, convertErr(err))
	}
	return toIntent(pi), nil
}

func toIntent(pi *stripego.PaymentIntent) *Intent {
	out := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
	}
	if pi.Metadata != nil {
		out.TransactionID = pi.Metadata[MetaTransactionID]
		out.PlanID, _ = strconv.Atoi(pi.Metadata[MetaPlanID])
	}
	return out
}

func convertErr(err error) error {
	var se *stripego.Error
	if errors.As(err, &se) {
		return &APIError{StatusCode: se.HTTPStatusCode, Code: string(se.Code), Message: se.Msg}
	}
	return err
}
