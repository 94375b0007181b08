package service

import (
	"context"

	"homedash/internal/logger"
)

// Mailer delivers password reset tokens.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// LogMailer writes reset tokens to the log instead of sending mail.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer { return &LogMailer{log: log} }

func (m *LogMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.log.Infow("password_reset_issued", "email", email, "token", token)
	return nil
}

// NopMailer drops every message.
type NopMailer struct{}

func (NopMailer) SendPasswordReset(context.Context, string, string) error { return nil }
