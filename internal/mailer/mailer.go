package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/mlevchenko/studyhub/internal/logging"
)

// Mailer is the outbound notification boundary. Send is synchronous so the
// caller has a deterministic completion point, but callers treat failures
// as non-fatal.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTP sends plain-text mail over a single SMTP endpoint.
type SMTP struct {
	Addr     string // host:port
	From     string
	Username string
	Password string
}

func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	var auth smtp.Auth
	if m.Username != "" {
		host := m.Addr
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.From, to, subject, body)
	if err := smtp.SendMail(m.Addr, auth, m.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// Log is the development mailer: it only logs what would have been sent.
type Log struct{}

func (Log) Send(ctx context.Context, to, subject, body string) error {
	logging.FromContext(ctx).Info("mail_send",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
