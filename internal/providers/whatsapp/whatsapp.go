// Package whatsapp delivers billing reminders through the WhatsApp Business
// Cloud API.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/notification"
)

const senderName = "whatsapp"

type apiSender struct {
	cfg    config.WhatsAppConfig
	log    *zap.Logger
	client *http.Client
}

// New returns the Business API sender, or a no-op sender when WhatsApp
// delivery is disabled.
func New(cfg config.Config, log *zap.Logger) notification.Sender {
	if !cfg.WhatsApp.Enabled || cfg.WhatsApp.Token == "" {
		return noopSender{log: log.Named("whatsapp.noop")}
	}
	return &apiSender{
		cfg:    cfg.WhatsApp,
		log:    log.Named("whatsapp.api"),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *apiSender) Name() string { return senderName }

func (s *apiSender) Send(ctx context.Context, msg notification.Message) error {
	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                "91" + msg.Subscriber.Phone,
		"type":              "text",
		"text": map[string]any{
			"body": messageText(msg),
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", s.cfg.APIURL, s.cfg.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("whatsapp api returned status %d", resp.StatusCode)
	}
	return nil
}

func messageText(msg notification.Message) string {
	switch msg.Event {
	case notification.EventPaymentDueTomorrow:
		return fmt.Sprintf("Dear %s, your payment for plan %s is due on %s. - FiberLink Broadband",
			msg.Subscriber.Name, msg.PlanName, msg.Subscriber.PaymentDueDate.Format("02 Jan 2006"))
	case notification.EventPlanExpiringTomorrow:
		return fmt.Sprintf("Dear %s, your plan %s expires on %s. Renew now to stay connected. - FiberLink Broadband",
			msg.Subscriber.Name, msg.PlanName, msg.Subscriber.PlanExpiryDate.Format("02 Jan 2006"))
	default:
		return fmt.Sprintf("Dear %s, your plan %s has expired. Please renew to restore service. - FiberLink Broadband",
			msg.Subscriber.Name, msg.PlanName)
	}
}

type noopSender struct {
	log *zap.Logger
}

func (n noopSender) Name() string { return senderName }

func (n noopSender) Send(_ context.Context, msg notification.Message) error {
	n.log.Debug("whatsapp delivery disabled, dropping message",
		zap.String("event", string(msg.Event)),
		zap.String("subscriber_id", msg.Subscriber.ID.String()),
	)
	return nil
}

var Module = fx.Module("whatsapp",
	fx.Provide(
		fx.Annotate(New, fx.ResultTags(`group:"notification_senders"`)),
	),
)
