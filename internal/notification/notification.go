// Package notification fans subscriber reminders out to the configured
// delivery channels. Delivery is best effort; a channel failure is logged
// and counted, never surfaced to the caller.
package notification

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/observability/metrics"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

// Event identifies which reminder is being sent.
type Event string

const (
	EventPaymentDueTomorrow   Event = "payment_due_tomorrow"
	EventPlanExpiringTomorrow Event = "plan_expiring_tomorrow"
	EventPlanExpired          Event = "plan_expired"
)

// Message is one reminder addressed to one subscriber.
type Message struct {
	Event      Event
	Subscriber subscriberdomain.Subscriber
	PlanName   string
}

// Sender delivers a message over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// Dispatcher fans one message out to every registered sender.
type Dispatcher struct {
	log     *zap.Logger
	senders []Sender
	metrics *metrics.Metrics
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Senders []Sender         `group:"notification_senders"`
	Metrics *metrics.Metrics `optional:"true"`
}

func NewDispatcher(p Params) *Dispatcher {
	return &Dispatcher{
		log:     p.Log.Named("notification.dispatcher"),
		senders: p.Senders,
		metrics: p.Metrics,
	}
}

// Dispatch delivers msg on every channel. It never returns an error.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) {
	for _, sender := range d.senders {
		if err := sender.Send(ctx, msg); err != nil {
			if d.metrics != nil {
				d.metrics.NotificationsFailed.WithLabelValues(sender.Name()).Inc()
			}
			d.log.Warn("notification delivery failed",
				zap.String("channel", sender.Name()),
				zap.String("event", string(msg.Event)),
				zap.String("subscriber_id", msg.Subscriber.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if d.metrics != nil {
			d.metrics.NotificationsSent.WithLabelValues(sender.Name()).Inc()
		}
	}
}

var Module = fx.Module("notification",
	fx.Provide(NewDispatcher),
)
