// Package service implements subscriber lifecycle operations.
package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/actorcontext"
	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/dateutil"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	"github.com/fiberlink/backoffice/internal/lifecycle/domain"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type lifecycleService struct {
	log        *zap.Logger
	db         *gorm.DB
	clock      clock.Clock
	billing    *config.BillingConfigHolder
	subRepo    subscriberdomain.Repository
	planRepo   plandomain.Repository
	invoiceSvc invoicedomain.Service
	ledgerSvc  ledgerdomain.Service
	renderer   domain.InvoiceRenderer
}

type Params struct {
	fx.In

	Log        *zap.Logger
	DB         *gorm.DB
	Clock      clock.Clock
	Billing    *config.BillingConfigHolder
	SubRepo    subscriberdomain.Repository
	PlanRepo   plandomain.Repository
	InvoiceSvc invoicedomain.Service
	LedgerSvc  ledgerdomain.Service
	Renderer   domain.InvoiceRenderer `optional:"true"`
}

func New(p Params) domain.Service {
	return &lifecycleService{
		log:        p.Log.Named("lifecycle.service"),
		db:         p.DB,
		clock:      p.Clock,
		billing:    p.Billing,
		subRepo:    p.SubRepo,
		planRepo:   p.PlanRepo,
		invoiceSvc: p.InvoiceSvc,
		ledgerSvc:  p.LedgerSvc,
		renderer:   p.Renderer,
	}
}

func (s *lifecycleService) RenewOrReduce(ctx context.Context, subscriberID string, req domain.RenewRequest) (domain.RenewResponse, error) {
	cfg := s.billing.Get()
	if req.Months == 0 || req.Months > cfg.MaxRenewalMonths || req.Months < -cfg.MaxRenewalMonths {
		return domain.RenewResponse{}, domain.ErrInvalidMonths
	}
	if req.PaymentMethod != "" && req.PaymentMethod != "CASH" && req.PaymentMethod != "UPI" {
		return domain.RenewResponse{}, invoicedomain.ErrInvalidPaymentMethod
	}

	subID, err := snowflake.ParseString(subscriberID)
	if err != nil {
		return domain.RenewResponse{}, subscriberdomain.ErrSubscriberNotFound
	}

	var resp domain.RenewResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subRepo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		// Only a billed line can be renewed. A subscriber still waiting on
		// installation has no expiry to extend; activation goes through
		// CompleteInstallation.
		if sub.Status == subscriberdomain.StatusPendingInstallation ||
			sub.Status == subscriberdomain.StatusInstallationScheduled {
			return domain.ErrInvalidTransition
		}

		plan, err := s.planRepo.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		today := dateutil.DateOnly(now)
		oldExpiry := sub.PlanExpiryDate
		newExpiry := dateutil.AddCalendarMonths(oldExpiry, req.Months)

		if req.Months < 0 {
			// A walk-back may shorten the plan but never end it in the
			// past. Nothing is written when the reduction is rejected.
			if newExpiry.Before(today) {
				return domain.ErrReductionBeforeToday
			}
			sub.PlanExpiryDate = newExpiry
			if err := s.subRepo.Update(ctx, tx, sub); err != nil {
				return err
			}
			resp.Subscriber = *sub
			resp.Action = domain.ActionReduced
			return nil
		}

		oldPendingPaise := sub.OldPendingAmount * 100

		sub.Status = subscriberdomain.StatusActive
		sub.IsPlanActive = true
		sub.PlanExpiryDate = newExpiry
		sub.PaymentDueDate = today.AddDate(0, 0, cfg.PaymentDueDays)
		sub.LastRenewalDate = &now
		sub.OldPendingAmount = 0
		switch req.PaymentMethod {
		case "CASH":
			sub.PaymentStatus = subscriberdomain.PaymentVerifiedByCash
		case "UPI":
			sub.PaymentStatus = subscriberdomain.PaymentVerifiedByUPI
		default:
			sub.PaymentStatus = subscriberdomain.PaymentPending
		}

		if err := s.subRepo.Update(ctx, tx, sub); err != nil {
			return err
		}

		inv, err := s.invoiceSvc.Generate(ctx, tx, invoicedomain.GenerateRequest{
			SubscriberID:    sub.ID,
			PlanID:          plan.ID,
			PlanName:        plan.Name,
			MonthlyPrice:    plan.MonthlyPrice,
			MonthsRenewed:   req.Months,
			OldExpiryDate:   oldExpiry,
			NewExpiryDate:   newExpiry,
			OldPendingPaise: oldPendingPaise,
			PaymentMethod:   req.PaymentMethod,
			GeneratedBy:     actorcontext.ActorFromContext(ctx),
		})
		if err != nil {
			return err
		}

		resp.Subscriber = *sub
		resp.Action = domain.ActionExtended
		resp.Invoice = &inv
		return nil
	})
	if err != nil {
		return domain.RenewResponse{}, err
	}

	if resp.Invoice != nil && s.renderer != nil {
		// PDF rendering happens after commit; a failure here leaves the
		// invoice without a file, never without a row.
		path, err := s.renderer.RenderInvoice(ctx, *resp.Invoice, resp.Subscriber)
		if err != nil {
			s.log.Warn("invoice pdf rendering failed",
				zap.String("invoice_number", resp.Invoice.InvoiceNumber),
				zap.Error(err),
			)
		} else if err := s.invoiceSvc.AttachPDF(ctx, resp.Invoice.ID, path); err != nil {
			s.log.Warn("failed to attach invoice pdf",
				zap.String("invoice_number", resp.Invoice.InvoiceNumber),
				zap.Error(err),
			)
		} else {
			resp.Invoice.PDFFilepath = path
		}
	}

	s.log.Info("plan period changed",
		zap.String("subscriber_id", subscriberID),
		zap.String("action", resp.Action),
		zap.Int("months", req.Months),
		zap.Time("new_expiry", resp.Subscriber.PlanExpiryDate),
	)
	return resp, nil
}

func (s *lifecycleService) UpdateBilling(ctx context.Context, subscriberID string, req domain.UpdateBillingRequest) (subscriberdomain.Subscriber, error) {
	if req.PaymentStatus == nil && req.OldPendingAmount == nil && req.PaymentDueDate == nil && req.PlanID == nil {
		return subscriberdomain.Subscriber{}, domain.ErrNoBillingChanges
	}
	if req.PaymentStatus != nil && !subscriberdomain.ValidPaymentStatus(*req.PaymentStatus) {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrInvalidStatus
	}
	if req.OldPendingAmount != nil && *req.OldPendingAmount < 0 {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrInvalidPendingAmt
	}

	subID, err := snowflake.ParseString(subscriberID)
	if err != nil {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrSubscriberNotFound
	}

	var updated subscriberdomain.Subscriber
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subRepo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}

		prevPlan, err := s.planRepo.FindByID(ctx, tx, sub.PlanID)
		if err != nil {
			return err
		}

		prevDue := sub.PaymentDueDate
		prevPlanID := sub.PlanID
		before := ledgerdomain.Snapshot{
			PaymentStatus: string(sub.PaymentStatus),
			PendingAmount: sub.OldPendingAmount,
			PaymentDue:    &prevDue,
			PlanID:        &prevPlanID,
			PlanName:      prevPlan.Name,
		}

		category := ledgerdomain.CategoryBillingUpdate
		newPlanName := prevPlan.Name

		if req.PaymentStatus != nil && *req.PaymentStatus != sub.PaymentStatus {
			sub.PaymentStatus = *req.PaymentStatus
			if *req.PaymentStatus != subscriberdomain.PaymentPending {
				category = ledgerdomain.CategoryPaymentVerification
			}
		}
		if req.OldPendingAmount != nil {
			sub.OldPendingAmount = *req.OldPendingAmount
		}
		if req.PaymentDueDate != nil {
			sub.PaymentDueDate = dateutil.DateOnly(*req.PaymentDueDate)
		}
		if req.PlanID != nil {
			planID, err := snowflake.ParseString(*req.PlanID)
			if err != nil {
				return plandomain.ErrPlanNotFound
			}
			if planID != sub.PlanID {
				newPlan, err := s.planRepo.FindByID(ctx, tx, planID)
				if err != nil {
					return err
				}
				sub.PlanID = newPlan.ID
				newPlanName = newPlan.Name
				category = ledgerdomain.CategoryPlanChange
			}
		}

		if err := s.subRepo.Update(ctx, tx, sub); err != nil {
			return err
		}

		newDue := sub.PaymentDueDate
		newPlanID := sub.PlanID
		after := ledgerdomain.Snapshot{
			PaymentStatus: string(sub.PaymentStatus),
			PendingAmount: sub.OldPendingAmount,
			PaymentDue:    &newDue,
			PlanID:        &newPlanID,
			PlanName:      newPlanName,
		}

		if _, err := s.ledgerSvc.RecordChange(ctx, tx, ledgerdomain.RecordChangeRequest{
			SubscriberID: sub.ID,
			Category:     category,
			Before:       before,
			After:        after,
			Notes:        req.Notes,
		}); err != nil {
			return err
		}

		updated = *sub
		return nil
	})
	if err != nil {
		return subscriberdomain.Subscriber{}, err
	}
	return updated, nil
}

func (s *lifecycleService) ScheduleInstallation(ctx context.Context, subscriberID string, req domain.ScheduleInstallationRequest) (subscriberdomain.Subscriber, error) {
	subID, err := snowflake.ParseString(subscriberID)
	if err != nil {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrSubscriberNotFound
	}

	var updated subscriberdomain.Subscriber
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subRepo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub.Status != subscriberdomain.StatusPendingInstallation &&
			sub.Status != subscriberdomain.StatusInstallationScheduled {
			return domain.ErrInvalidTransition
		}

		date := dateutil.DateOnly(req.InstallationDate)
		if date.Before(dateutil.DateOnly(s.clock.Now())) {
			return domain.ErrPastInstallationDate
		}

		sub.Status = subscriberdomain.StatusInstallationScheduled
		sub.InstallationDate = &date
		if err := s.subRepo.Update(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriberdomain.Subscriber{}, err
	}
	return updated, nil
}

// CompleteInstallation activates a newly installed line. The first billing
// cycle starts today; no invoice is raised for it.
func (s *lifecycleService) CompleteInstallation(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error) {
	subID, err := snowflake.ParseString(subscriberID)
	if err != nil {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrSubscriberNotFound
	}

	var updated subscriberdomain.Subscriber
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subRepo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub.Status != subscriberdomain.StatusPendingInstallation &&
			sub.Status != subscriberdomain.StatusInstallationScheduled {
			return domain.ErrInvalidTransition
		}

		cfg := s.billing.Get()
		today := dateutil.DateOnly(s.clock.Now())

		sub.Status = subscriberdomain.StatusActive
		sub.IsPlanActive = true
		sub.PlanStartDate = today
		sub.PlanExpiryDate = dateutil.AddCalendarMonths(today, 1)
		sub.PaymentDueDate = today.AddDate(0, 0, cfg.PaymentDueDays)
		sub.PaymentStatus = subscriberdomain.PaymentPending
		if sub.InstallationDate == nil {
			sub.InstallationDate = &today
		}

		if err := s.subRepo.Update(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriberdomain.Subscriber{}, err
	}

	s.log.Info("installation completed",
		zap.String("subscriber_id", subscriberID),
		zap.Time("plan_expiry", updated.PlanExpiryDate),
	)
	return updated, nil
}

func (s *lifecycleService) Suspend(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error) {
	return s.transition(ctx, subscriberID, subscriberdomain.StatusSuspended)
}

func (s *lifecycleService) ExpireNow(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error) {
	return s.transition(ctx, subscriberID, subscriberdomain.StatusExpired)
}

func (s *lifecycleService) transition(ctx context.Context, subscriberID string, target subscriberdomain.Status) (subscriberdomain.Subscriber, error) {
	subID, err := snowflake.ParseString(subscriberID)
	if err != nil {
		return subscriberdomain.Subscriber{}, subscriberdomain.ErrSubscriberNotFound
	}

	var updated subscriberdomain.Subscriber
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.subRepo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}
		if sub.Status == target || !domain.IsTransitionAllowed(sub.Status, target) {
			return domain.ErrInvalidTransition
		}

		sub.Status = target
		sub.IsPlanActive = false
		if target == subscriberdomain.StatusExpired {
			// Same reset the sweeper applies; the carried balance stays.
			today := dateutil.DateOnly(s.clock.Now())
			sub.PaymentStatus = subscriberdomain.PaymentPending
			sub.PaymentDueDate = today.AddDate(0, 0, s.billing.Get().PaymentDueDays)
		}
		if err := s.subRepo.Update(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return subscriberdomain.Subscriber{}, err
	}

	s.log.Info("subscriber status changed",
		zap.String("subscriber_id", subscriberID),
		zap.String("status", string(target)),
	)
	return updated, nil
}
