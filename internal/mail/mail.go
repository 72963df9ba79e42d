// Package mail sends transactional email. Delivery is best-effort and not
// retried; a failed send surfaces to the caller and the request fails.
package mail

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/diewo77/go-albaranes/internal/config"
)

// Sender delivers a single message. TextBody and HTMLBody are both
// optional; when both are set the HTML part wins.
type Sender interface {
	Send(to, subject, textBody, htmlBody string) error
}

// SMTPSender delivers through a configured SMTP relay.
type SMTPSender struct {
	cfg config.MailConfig
}

func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) Send(to, subject, textBody, htmlBody string) error {
	body := textBody
	contentType := "text/plain; charset=UTF-8"
	if htmlBody != "" {
		body = htmlBody
		contentType = "text/html; charset=UTF-8"
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", s.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	fmt.Fprintf(&msg, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: %s\r\n\r\n", contentType)
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var a smtp.Auth
	if s.cfg.Username != "" {
		a = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	if err := smtp.SendMail(addr, a, s.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

// LogSender writes messages to the application log instead of delivering
// them. Used in dev and in tests.
type LogSender struct{}

func (LogSender) Send(to, subject, textBody, htmlBody string) error {
	log.Printf("mail (not sent): to=%s subject=%q", to, subject)
	return nil
}

// FromConfig picks SMTP when a host is configured, log-only otherwise.
func FromConfig(cfg config.MailConfig) Sender {
	if cfg.Host == "" {
		return LogSender{}
	}
	return NewSMTPSender(cfg)
}
