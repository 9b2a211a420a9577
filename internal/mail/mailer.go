// Package mail delivers outbound email through an SMTP relay.
package mail

import (
	"context"
	"errors"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/change-control/internal/config"
)

// TemplateHeader carries the change type's email template identity.
const TemplateHeader = "X-Email-Template-ID"

// Message is a single outbound email.
type Message struct {
	To        []string
	Subject   string
	HTMLBody  string
	PlainBody string
	Headers   map[string]string
}

// Mailer sends messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail with gomail.
type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPMailer builds a mailer from notification settings.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(msg.To) == 0 {
		return errors.New("mail: no recipients")
	}
	return m.dialer.DialAndSend(buildMessage(m.from, msg))
}

func buildMessage(from string, msg Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("From", from)
	gm.SetHeader("To", msg.To...)
	gm.SetHeader("Subject", msg.Subject)
	for key, value := range msg.Headers {
		gm.SetHeader(key, value)
	}
	gm.SetBody("text/plain", msg.PlainBody)
	if msg.HTMLBody != "" {
		gm.AddAlternative("text/html", msg.HTMLBody)
	}
	return gm
}
