package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Типы событий, которые обрабатывает WatchHub.
const (
	EventPaymentSucceeded = string(stripego.EventTypePaymentIntentSucceeded)
	EventPaymentFailed    = string(stripego.EventTypePaymentIntentPaymentFailed)
)

// ErrInvalidSignature подпись Stripe-Signature не прошла проверку.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Event проверенное событие вебхука. Для событий PaymentIntent заполнен Intent.
type Event struct {
	ID     string
	Type   string
	Intent *Intent
}

// ParseEvent проверяет подпись и разбирает событие.
func (c *Client) ParseEvent(payload []byte, signature string) (*Event, error) {
	const op = "stripe.ParseEvent"
	// webhookSecret пустой только в неверной конфигурации, такие события не принимаем
	if c.webhookSecret == "" {
		return nil, fmt.Errorf("%s: %w: webhook secret is not configured", op, ErrInvalidSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	switch out.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
		if ev.Data == nil {
			return nil, fmt.Errorf("%s: event %s has no data", op, ev.ID)
		}
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(ev.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out.Intent = toIntent(&pi)
	}
	return out, nil
}
