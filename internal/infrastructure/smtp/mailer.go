package smtp

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/config"
)

// template pairs a subject line with a body format; the body receives the
// display name and the code.
type template struct {
	subject string
	body    string
}

var templates = map[string]template{
	"account-verification": {
		subject: "Verify your account",
		body:    "Hi %s,\r\n\r\nYour verification code is %s. It expires in 5 minutes.",
	},
	"password-reset": {
		subject: "Password reset code",
		body:    "Hi %s,\r\n\r\nYour password reset code is %s. It expires in 5 minutes.",
	},
}

var defaultTemplate = template{
	subject: "Your one-time code",
	body:    "Hi %s,\r\n\r\nYour one-time code is %s. It expires in 5 minutes.",
}

// Mailer delivers one-time codes over SMTP. It implements otp.Sender.
type Mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
}

func NewMailer(cfg *config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		from:     cfg.SMTPFrom,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
	}
}

func (m *Mailer) Send(_ context.Context, msg otp.Message) error {
	tpl, ok := templates[msg.TemplateID]
	if !ok {
		tpl = defaultTemplate
	}
	name := msg.DisplayName
	if name == "" {
		name = "there"
	}

	body := fmt.Sprintf(tpl.body, name, msg.Code)
	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, msg.Recipient, tpl.subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return smtp.SendMail(addr, auth, m.from, []string{msg.Recipient}, []byte(raw))
}
