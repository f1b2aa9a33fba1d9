// Package mailer delivers the confirmation and password-reset emails.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/config"
)

// Mailer sends a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Client is the subset of *smtp.Client the sender drives.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer opens an authenticated SMTP session.
type Dialer interface {
	Dial(ctx context.Context) (Client, error)
}

type SMTPMailer struct {
	dialer Dialer
	from   string
	log    *slog.Logger
}

func NewSMTPMailer(dialer Dialer, from string, log *slog.Logger) *SMTPMailer {
	return &SMTPMailer{dialer: dialer, from: from, log: log}
}

// New picks SMTP delivery when configured and the logging mailer otherwise.
func New(cfg *config.Config, log *slog.Logger) Mailer {
	if !cfg.MailEnabled() {
		log.Warn("SMTP not configured, emails will only be logged")
		return NewLogMailer(log)
	}
	return NewSMTPMailer(&SMTPDialer{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		User:     cfg.SMTPUser,
		Password: cfg.SMTPPassword,
	}, cfg.SMTPFrom, log)
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := BuildMessage(m.from, to, subject, body)

	client, err := m.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("MAIL FROM %s: %w", m.from, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO %s: %w", to, err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("QUIT: %w", err)
	}

	m.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// BuildMessage renders RFC 5322 headers plus a UTF-8 plain-text body.
func BuildMessage(from, to, subject, body string) string {
	return strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + subject,
		"Date: " + time.Now().UTC().Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		strings.ReplaceAll(body, "\n", "\r\n"),
	}, "\r\n")
}

type SMTPDialer struct {
	Host     string
	Port     string
	User     string
	Password string
}

func (d *SMTPDialer) Dial(ctx context.Context) (Client, error) {
	var nd net.Dialer
	conn, err := nd.DialContext(ctx, "tcp", net.JoinHostPort(d.Host, d.Port))
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, d.Host)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: d.Host, MinVersion: tls.VersionTLS12}); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	if d.User != "" {
		if err := client.Auth(smtp.PlainAuth("", d.User, d.Password, d.Host)); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return client, nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct {
	log *slog.Logger
}

func NewLogMailer(log *slog.Logger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("email (not sent)", "to", to, "subject", subject, "body", body)
	return nil
}
