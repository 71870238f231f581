package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/Varda003/EmoTune/internal/shared"
	"github.com/charmbracelet/log"
	"gopkg.in/gomail.v2"
)

// dialer is the part of [gomail.Dialer] the mailer uses.
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer delivers password reset codes by email.
type SMTPMailer struct {
	from   string
	dialer dialer
	logger *log.Logger
}

// NewSMTPMailer creates a mailer for the SMTP server in config.
func NewSMTPMailer(config shared.MailConfig, logger *log.Logger) *SMTPMailer {
	port := config.SMTPPort
	if port == 0 {
		port = 587
	}

	return &SMTPMailer{
		from:   config.From,
		dialer: gomail.NewDialer(config.SMTPHost, port, config.SMTPUser, config.SMTPPass),
		logger: shared.WithLogger(logger, "component", "mailer"),
	}
}

// SendResetCode emails code to the recipient.
func (m *SMTPMailer) SendResetCode(ctx context.Context, to, name, code string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your EmoTune password reset code")
	msg.SetBody("text/html", resetEmailBody(name, code, expiresAt))

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("%w: failed to send reset email: %w", shared.ErrServiceUnavailable, err)
	}

	m.logger.Debug("reset email sent", "to", to)
	return nil
}

func resetEmailBody(name, code string, expiresAt time.Time) string {
	minutes := int(time.Until(expiresAt).Round(time.Minute).Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf(`<p>Hi %s,</p>
<p>Use this code to reset your EmoTune password:</p>
<h2 style="letter-spacing:4px">%s</h2>
<p>The code expires in %d minutes. If you did not ask for a reset you can ignore this email.</p>`,
		html.EscapeString(name), code, minutes)
}

// LogMailer writes reset codes to the log. It stands in for SMTP in development.
type LogMailer struct {
	logger *log.Logger
}

func NewLogMailer(logger *log.Logger) *LogMailer {
	return &LogMailer{logger: shared.WithLogger(logger, "component", "mailer")}
}

func (m *LogMailer) SendResetCode(_ context.Context, to, _, code string, expiresAt time.Time) error {
	m.logger.Warn("smtp not configured, reset code logged", "to", to, "code", code, "expires_at", expiresAt)
	return nil
}
