package service

import (
	"context"

	"go.uber.org/zap"
)

// Mailer delivers account e-mails.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer only logs the message; there is no SMTP delivery.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.Named("mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.log.Info("email sent",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Int("body_len", len(body)))
	return nil
}
