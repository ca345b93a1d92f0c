// Package sender превращает уведомления из брокера в письма.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/watchhub/internal/lib/sl"
	"github.com/magabrotheeeer/watchhub/internal/lib/smtp"
	"github.com/magabrotheeeer/watchhub/internal/models"
)

// Service отправляет письма через SMTP транспорт.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// SendExpiringSubscription письмо о подписке, которая заканчивается в течение суток.
func (s *Service) SendExpiringSubscription(ctx context.Context, body []byte) error {
	const op = "sender.SendExpiringSubscription"
	log := s.log.With(slog.String("op", op))

	var message models.ExpiringSubscription
	if err := json.Unmarshal(body, &message); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.send(ctx, log, smtp.Message{
		To:      message.Email,
		Subject: "Tu suscripción a WatchHub vence mañana",
		Body: fmt.Sprintf("Hola, %s.\r\n\r\nTu plan %s vence el %s.\r\nRenueva tu suscripción para seguir disfrutando de WatchHub.",
			message.Name, message.PlanName, message.EndAt.Format("02/01/2006 15:04 MST")),
	})
}

// SendWelcome письмо о созданной учетной записи.
func (s *Service) SendWelcome(ctx context.Context, body []byte) error {
	const op = "sender.SendWelcome"
	log := s.log.With(slog.String("op", op))

	var message models.WelcomeMessage
	if err := json.Unmarshal(body, &message); err != nil {
		log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	return s.send(ctx, log, smtp.Message{
		To:      message.Email,
		Subject: "Bienvenido a WatchHub",
		Body: fmt.Sprintf("Hola, %s.\r\n\r\nTu cuenta está lista y tu pago fue confirmado (transacción %s).\r\n¡Disfruta de WatchHub!",
			message.Name, message.TransactionID),
	})
}

func (s *Service) send(ctx context.Context, log *slog.Logger, msg smtp.Message) error {
	if msg.To == "" {
		log.Warn("message without recipient, dropped")
		return nil
	}
	if err := smtp.Send(ctx, s.transport, msg); err != nil {
		log.Error("failed to send email", slog.String("to", msg.To), sl.Err(err))
		return err
	}
	log.Info("email sent successfully", slog.String("to", msg.To))
	return nil
}
