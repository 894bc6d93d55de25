package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/josecyberpro/site/internal/config"
	"github.com/josecyberpro/site/internal/version"
)

// ErrMailNotConfigured is returned by the mailer used when no provider is set up.
var ErrMailNotConfigured = errors.New("mail provider not configured")

// Email is a plain-text transactional message.
type Email struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	Text    string
}

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// NewMailer builds the transport selected by cfg.Provider.
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Provider {
	case config.MailProviderResend:
		if cfg.ResendAPIKey == "" {
			return nil, errors.New("RESEND_API_KEY is required for the resend provider")
		}
		return NewResendMailer(cfg.ResendAPIKey), nil
	case config.MailProviderSMTP:
		if cfg.SMTPHost == "" {
			return nil, errors.New("SMTP_HOST is required for the smtp provider")
		}
		return NewSMTPMailer(SMTPConfig{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SMTPUsername,
			Password:   cfg.SMTPPassword,
			Encryption: cfg.SMTPEncryption,
		}), nil
	case config.MailProviderNone, "":
		return disabledMailer{}, nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

type disabledMailer struct{}

func (disabledMailer) Send(context.Context, Email) error {
	return ErrMailNotConfigured
}

// ResendMailer delivers through the Resend HTTP API.
type ResendMailer struct {
	client *resend.Client
}

func NewResendMailer(apiKey string) *ResendMailer {
	client := resend.NewClient(apiKey)
	client.UserAgent = version.UserAgent()
	return &ResendMailer{client: client}
}

func (m *ResendMailer) Send(ctx context.Context, msg Email) error {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// SMTPConfig holds the SMTP server configuration.
type SMTPConfig struct {
	Host       string
	Port       int
	Username   string
	Password   string
	Encryption string // "none", "ssl", "starttls"
}

// SMTPMailer sends mail over SMTP with optional implicit TLS or STARTTLS.
// Every session, including the dial, is bounded by timeout or the context
// deadline, whichever comes first.
type SMTPMailer struct {
	cfg     SMTPConfig
	timeout time.Duration
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, timeout: 15 * time.Second}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body := buildMessage(msg, time.Now())
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	conn, err := m.dial(ctx, addr)
	if err != nil {
		return fmt.Errorf("SMTP connection failed: %w", err)
	}
	defer conn.Close()

	if m.cfg.Encryption == "ssl" {
		conn = tls.Client(conn, m.tlsConfig())
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if m.cfg.Encryption == "starttls" {
		if err := client.StartTLS(m.tlsConfig()); err != nil {
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	return m.transmit(client, auth, msg, body)
}

// dial opens the TCP connection and arms a deadline covering the whole session.
func (m *SMTPMailer) dial(ctx context.Context, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: m.timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	deadline := time.Now().Add(m.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName: m.cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
}

func (m *SMTPMailer) transmit(client *smtp.Client, auth smtp.Auth, msg Email, body []byte) error {
	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}

	if err := client.Mail(envelopeAddress(msg.From)); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA failed: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return client.Quit()
}

// buildMessage renders RFC 5322 headers in a fixed order followed by the body.
// Header values have line breaks stripped so user input cannot inject headers.
func buildMessage(msg Email, date time.Time) []byte {
	headers := [][2]string{
		{"From", msg.From},
		{"To", msg.To},
	}
	if msg.ReplyTo != "" {
		headers = append(headers, [2]string{"Reply-To", msg.ReplyTo})
	}
	headers = append(headers,
		[2]string{"Subject", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject))},
		[2]string{"Date", date.Format(time.RFC1123Z)},
		[2]string{"MIME-Version", "1.0"},
		[2]string{"Content-Type", "text/plain; charset=UTF-8"},
	)

	var buf bytes.Buffer
	for _, h := range headers {
		buf.WriteString(h[0])
		buf.WriteString(": ")
		buf.WriteString(headerSafe(h[1]))
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	buf.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Text, "\r\n", "\n"), "\n", "\r\n"))

	return buf.Bytes()
}

func headerSafe(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// envelopeAddress strips a display name: "Jose <jose@example.com>" -> "jose@example.com".
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return strings.TrimSpace(from[i+1 : j])
		}
	}
	return strings.TrimSpace(from)
}
