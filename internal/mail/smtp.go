package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTP sends mail through an authenticated SMTP relay (Gmail app-password
// style credentials).
type SMTP struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTP constructs the SMTP mailer. An instance with empty credentials
// reports Enabled() == false and refuses to send.
func NewSMTP(host string, port int, username, password, from string) *SMTP {
	if from == "" {
		from = username
	}
	return &SMTP{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

func (m *SMTP) Enabled() bool {
	return m.username != "" && m.password != ""
}

// Send delivers a plain-text message. net/smtp has no context support, so
// cancellation only takes effect between retries at the caller.
func (m *SMTP) Send(ctx context.Context, to, subject, body string) error {
	if !m.Enabled() {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.from)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.host, m.port)
	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}
