// Package email delivers billing reminders over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/notification"
)

const senderName = "email"

var subjects = map[notification.Event]string{
	notification.EventPaymentDueTomorrow:   "Payment due tomorrow",
	notification.EventPlanExpiringTomorrow: "Your broadband plan expires tomorrow",
	notification.EventPlanExpired:          "Your broadband plan has expired",
}

var bodyTmpl = template.Must(template.New("reminder").Parse(`<html><body>
<p>Dear {{.Subscriber.Name}},</p>
{{if eq .Event "payment_due_tomorrow"}}
<p>Your payment of ₹{{.Subscriber.OldPendingAmount}} for plan {{.PlanName}} is due on {{.Subscriber.PaymentDueDate.Format "02 Jan 2006"}}.</p>
{{else if eq .Event "plan_expiring_tomorrow"}}
<p>Your plan {{.PlanName}} expires on {{.Subscriber.PlanExpiryDate.Format "02 Jan 2006"}}. Renew now to stay connected.</p>
{{else}}
<p>Your plan {{.PlanName}} expired on {{.Subscriber.PlanExpiryDate.Format "02 Jan 2006"}}. Please renew to restore service.</p>
{{end}}
<p>FiberLink Broadband</p>
</body></html>`))

type smtpSender struct {
	cfg config.EmailConfig
	log *zap.Logger
}

// New returns the SMTP sender, or a no-op sender when email delivery is
// disabled.
func New(cfg config.Config, log *zap.Logger) notification.Sender {
	if !cfg.Email.Enabled {
		return noopSender{log: log.Named("email.noop")}
	}
	return &smtpSender{cfg: cfg.Email, log: log.Named("email.smtp")}
}

func (s *smtpSender) Name() string { return senderName }

func (s *smtpSender) Send(_ context.Context, msg notification.Message) error {
	if msg.Subscriber.Email == "" {
		return nil
	}

	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, msg); err != nil {
		return err
	}

	subject := subjects[msg.Event]
	var mail bytes.Buffer
	fmt.Fprintf(&mail, "From: %s\r\n", s.cfg.SMTPFrom)
	fmt.Fprintf(&mail, "To: %s\r\n", msg.Subscriber.Email)
	fmt.Fprintf(&mail, "Subject: %s\r\n", subject)
	mail.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n")
	mail.Write(body.Bytes())

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return smtp.SendMail(addr, auth, s.cfg.SMTPFrom, []string{msg.Subscriber.Email}, mail.Bytes())
}

type noopSender struct {
	log *zap.Logger
}

func (n noopSender) Name() string { return senderName }

func (n noopSender) Send(_ context.Context, msg notification.Message) error {
	n.log.Debug("email delivery disabled, dropping message",
		zap.String("event", string(msg.Event)),
		zap.String("subscriber_id", msg.Subscriber.ID.String()),
	)
	return nil
}

var Module = fx.Module("email",
	fx.Provide(
		fx.Annotate(New, fx.ResultTags(`group:"notification_senders"`)),
	),
)
