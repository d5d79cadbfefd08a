package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"

	"ragoalert/internal/config"
)

// EmailNotifier sends messages over SMTP. Port 465 uses implicit TLS,
// other ports go through net/smtp's STARTTLS path.
type EmailNotifier struct {
	cfg    config.SMTPConfig
	logger zerolog.Logger
}

// NewEmailNotifier creates a mailer from SMTP settings.
func NewEmailNotifier(cfg config.SMTPConfig, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		cfg:    cfg,
		logger: logger.With().Str("component", "email").Logger(),
	}
}

// Send delivers one message. The context is checked before dialing;
// net/smtp itself does not support cancellation mid-send.
func (e *EmailNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.cfg.Server == "" {
		return fmt.Errorf("smtp server not configured")
	}

	from := e.cfg.User
	raw := fmt.Sprintf(
		"From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		e.cfg.SenderName, from, msg.To, msg.Subject, msg.HTML)

	addr := fmt.Sprintf("%s:%d", e.cfg.Server, e.cfg.Port)

	var auth smtp.Auth
	if e.cfg.User != "" && e.cfg.Password != "" {
		auth = smtp.PlainAuth("", e.cfg.User, e.cfg.Password, e.cfg.Server)
	}

	var err error
	if e.cfg.Port == 465 {
		err = e.sendWithTLS(addr, auth, from, msg.To, raw)
	} else {
		err = smtp.SendMail(addr, auth, from, []string{msg.To}, []byte(raw))
	}
	if err != nil {
		e.logger.Error().Err(err).Str("to", msg.To).Msg("email send failed")
		return err
	}
	e.logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("email sent")
	return nil
}

// sendWithTLS delivers over an implicit TLS connection.
func (e *EmailNotifier) sendWithTLS(addr string, auth smtp.Auth, from, to, raw string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: e.cfg.Server})
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.Server)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("SMTP RCPT command failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write([]byte(raw)); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}
	return client.Quit()
}
