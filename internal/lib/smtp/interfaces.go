// Package smtp отправляет письма WatchHub через SMTP сервер с STARTTLS.
package smtp

import (
	"context"
	"io"
)

// Client подмножество *smtp.Client, которое нужно для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface открывает аутентифицированную SMTP сессию.
type TransportInterface interface {
	Connect(ctx context.Context) (Client, error)
	GetSMTPUser() string
}
