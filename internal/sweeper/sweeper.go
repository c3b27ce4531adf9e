// Package sweeper expires lapsed plans and sends billing reminders on a
// daily schedule.
package sweeper

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/dateutil"
	"github.com/fiberlink/backoffice/internal/notification"
	"github.com/fiberlink/backoffice/internal/observability/metrics"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type Service struct {
	log        *zap.Logger
	db         *gorm.DB
	clock      clock.Clock
	cfg        config.SweepConfig
	billing    *config.BillingConfigHolder
	planRepo   plandomain.Repository
	dispatcher *notification.Dispatcher
	metrics    *metrics.Metrics
}

type Params struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	Clock      clock.Clock
	Config     config.Config
	Billing    *config.BillingConfigHolder
	PlanRepo   plandomain.Repository
	Dispatcher *notification.Dispatcher
	Metrics    *metrics.Metrics `optional:"true"`
}

func New(p Params) *Service {
	return &Service{
		log:        p.Log.Named("sweeper"),
		db:         p.DB,
		clock:      p.Clock,
		cfg:        p.Config.Sweep,
		billing:    p.Billing,
		planRepo:   p.PlanRepo,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
	}
}

// Sweep flips every subscriber whose plan expiry has passed to EXPIRED in one
// transaction and returns how many rows changed. Payment status resets to
// PENDING with a fresh due date; the carried balance survives the transition.
// Running it twice on the same day is harmless; the second run matches
// nothing.
func (s *Service) Sweep(ctx context.Context) (int64, []subscriberdomain.Subscriber, error) {
	today := dateutil.DateOnly(s.clock.Now())
	dueDate := today.AddDate(0, 0, s.billing.Get().PaymentDueDays)

	var expired []subscriberdomain.Subscriber
	var count int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("is_plan_active = ? AND plan_expiry_date <= ?", true, today).
			Find(&expired).Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}

		res := tx.Model(&subscriberdomain.Subscriber{}).
			Where("is_plan_active = ? AND plan_expiry_date <= ?", true, today).
			Updates(map[string]any{
				"status":           subscriberdomain.StatusExpired,
				"is_plan_active":   false,
				"payment_status":   subscriberdomain.PaymentPending,
				"payment_due_date": dueDate,
				"updated_at":       s.clock.Now(),
			})
		if res.Error != nil {
			return res.Error
		}
		count = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return count, expired, nil
}

// RunOnce executes one full sweep cycle: expiry sweep plus the three
// reminder batches. Notification failures never fail the cycle.
func (s *Service) RunOnce(ctx context.Context) (int64, error) {
	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
	}

	count, expired, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return 0, err
	}
	if s.metrics != nil {
		s.metrics.SubscribersExpired.Add(float64(count))
	}
	s.log.Info("expiry sweep completed", zap.Int64("expired", count))

	s.notify(ctx, expired, notification.EventPlanExpired)
	s.remind(ctx, notification.EventPaymentDueTomorrow)
	s.remind(ctx, notification.EventPlanExpiringTomorrow)
	return count, nil
}

// remind selects tomorrow's due or expiring subscribers and dispatches one
// reminder each.
func (s *Service) remind(ctx context.Context, event notification.Event) {
	tomorrow := dateutil.DateOnly(s.clock.Now()).AddDate(0, 0, 1)

	query := s.db.WithContext(ctx).Model(&subscriberdomain.Subscriber{})
	switch event {
	case notification.EventPaymentDueTomorrow:
		query = query.Where("payment_due_date = ? AND payment_status = ?", tomorrow, subscriberdomain.PaymentPending)
	case notification.EventPlanExpiringTomorrow:
		query = query.Where("plan_expiry_date = ? AND is_plan_active = ?", tomorrow, true)
	default:
		return
	}

	var subs []subscriberdomain.Subscriber
	if err := query.Find(&subs).Error; err != nil {
		s.log.Error("reminder query failed",
			zap.String("event", string(event)),
			zap.Error(err),
		)
		return
	}
	s.notify(ctx, subs, event)
}

func (s *Service) notify(ctx context.Context, subs []subscriberdomain.Subscriber, event notification.Event) {
	for _, sub := range subs {
		planName := ""
		if plan, err := s.planRepo.FindByID(ctx, s.db, sub.PlanID); err == nil {
			planName = plan.Name
		}
		s.dispatcher.Dispatch(ctx, notification.Message{
			Event:      event,
			Subscriber: sub,
			PlanName:   planName,
		})
	}
}

// Schedule wires RunOnce onto the daily cron and ties it to the fx
// lifecycle.
func Schedule(lc fx.Lifecycle, s *Service) {
	if !s.cfg.Enabled {
		s.log.Info("expiry sweep schedule disabled")
		return
	}

	c := cron.New()
	_, err := c.AddFunc(s.cfg.CronSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(s.cfg.JobTimeout)*time.Second)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("scheduled sweep run failed", zap.Error(err))
		}
	})
	if err != nil {
		s.log.Error("invalid sweep cron spec",
			zap.String("spec", s.cfg.CronSpec),
			zap.Error(err),
		)
		return
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			c.Start()
			s.log.Info("expiry sweep scheduled", zap.String("spec", s.cfg.CronSpec))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			stopCtx := c.Stop()
			select {
			case <-stopCtx.Done():
			case <-ctx.Done():
			}
			return nil
		},
	})
}

var Module = fx.Module("sweeper",
	fx.Provide(New),
	fx.Invoke(Schedule),
)
