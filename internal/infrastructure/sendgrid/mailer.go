// Package sendgrid delivers login emails through the SendGrid v3 API instead of SMTP.
package sendgrid

import (
	"context"
	"fmt"
	"net/http"

	"github.com/classsync/internal/config"
	"github.com/classsync/internal/infrastructure/smtp"
	sg "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type mailer struct {
	key  string
	from *sgmail.Email
}

// NewMailer returns an smtp.Mailer backed by SendGrid.
func NewMailer(cfg *config.Config) smtp.Mailer {
	return &mailer{
		key:  cfg.SendGridAPIKey,
		from: sgmail.NewEmail(cfg.MailSenderName, cfg.SMTPFrom),
	}
}

func (m *mailer) Send(ctx context.Context, msg smtp.Message) error {
	// The client does not take a context; a cancelled request is not sent.
	if err := ctx.Err(); err != nil {
		return err
	}
	req := sg.GetRequest(m.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sg.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d", res.StatusCode)
	}
	return nil
}

func (m *mailer) prepare(msg smtp.Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	v3 := sgmail.NewV3Mail()
	v3.SetFrom(m.from)
	v3.AddPersonalizations(p)
	v3.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	if msg.HTMLBody != "" {
		v3.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}
	return v3
}
