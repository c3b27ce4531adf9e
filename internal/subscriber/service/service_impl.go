// Package service implements subscriber onboarding and lookup.
package service

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/actorcontext"
	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/dateutil"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	"github.com/fiberlink/backoffice/internal/subscriber/domain"
	"github.com/fiberlink/backoffice/pkg/db"
	"github.com/fiberlink/backoffice/pkg/db/option"
	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

type subscriberService struct {
	log      *zap.Logger
	db       *gorm.DB
	node     *snowflake.Node
	clock    clock.Clock
	billing  *config.BillingConfigHolder
	repo     domain.Repository
	planRepo plandomain.Repository
}

type Params struct {
	fx.In

	Log      *zap.Logger
	DB       *gorm.DB
	Node     *snowflake.Node
	Clock    clock.Clock
	Billing  *config.BillingConfigHolder
	Repo     domain.Repository
	PlanRepo plandomain.Repository
}

func New(p Params) domain.Service {
	return &subscriberService{
		log:      p.Log.Named("subscriber.service"),
		db:       p.DB,
		node:     p.Node,
		clock:    p.Clock,
		billing:  p.Billing,
		repo:     p.Repo,
		planRepo: p.PlanRepo,
	}
}

func (s *subscriberService) Create(ctx context.Context, req domain.CreateSubscriberRequest) (domain.Subscriber, error) {
	if !validPhone(req.Phone) {
		return domain.Subscriber{}, domain.ErrInvalidPhone
	}
	if strings.TrimSpace(req.CustomerCode) == "" {
		return domain.Subscriber{}, domain.ErrInvalidCustomerCode
	}
	if req.OldPendingAmount < 0 {
		return domain.Subscriber{}, domain.ErrInvalidPendingAmt
	}

	planID, err := snowflake.ParseString(req.PlanID)
	if err != nil {
		return domain.Subscriber{}, plandomain.ErrPlanNotFound
	}
	if _, err := s.planRepo.FindByID(ctx, s.db, planID); err != nil {
		return domain.Subscriber{}, err
	}

	today := dateutil.DateOnly(s.clock.Now())
	sub := domain.Subscriber{
		ID:               s.node.Generate(),
		CustomerCode:     strings.TrimSpace(req.CustomerCode),
		Name:             strings.TrimSpace(req.Name),
		Phone:            req.Phone,
		Email:            req.Email,
		Address:          req.Address,
		PlanID:           planID,
		PlanStartDate:    today,
		PlanExpiryDate:   today,
		PaymentDueDate:   today,
		PaymentStatus:    domain.PaymentPending,
		OldPendingAmount: req.OldPendingAmount,
	}

	// Admins onboard customers whose line is already live; engineers raise
	// the record first and report back once the installation is done.
	if actorcontext.ActorTypeFromContext(ctx) == actorcontext.ActorTypeEngineer {
		sub.Status = domain.StatusPendingInstallation
		sub.IsPlanActive = false
	} else {
		cfg := s.billing.Get()
		sub.Status = domain.StatusActive
		sub.IsPlanActive = true
		sub.PlanExpiryDate = dateutil.AddCalendarMonths(today, 1)
		sub.PaymentDueDate = today.AddDate(0, 0, cfg.PaymentDueDays)
	}

	if err := s.repo.Insert(ctx, s.db, &sub); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Subscriber{}, domain.ErrDuplicateSubscriber
		}
		s.log.Error("failed to create subscriber", zap.Error(err))
		return domain.Subscriber{}, err
	}

	s.log.Info("subscriber created",
		zap.String("subscriber_id", sub.ID.String()),
		zap.String("customer_code", sub.CustomerCode),
		zap.String("status", string(sub.Status)),
	)
	return sub, nil
}

func (s *subscriberService) Update(ctx context.Context, id string, req domain.UpdateSubscriberRequest) (domain.Subscriber, error) {
	subID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Subscriber{}, domain.ErrSubscriberNotFound
	}

	var updated domain.Subscriber
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByIDForUpdate(ctx, tx, subID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			sub.Name = strings.TrimSpace(*req.Name)
		}
		if req.Email != nil {
			sub.Email = *req.Email
		}
		if req.Address != nil {
			sub.Address = *req.Address
		}

		if err := s.repo.Update(ctx, tx, sub); err != nil {
			return err
		}
		updated = *sub
		return nil
	})
	if err != nil {
		return domain.Subscriber{}, err
	}
	return updated, nil
}

func (s *subscriberService) GetByID(ctx context.Context, id string) (domain.Subscriber, error) {
	subID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Subscriber{}, domain.ErrSubscriberNotFound
	}

	sub, err := s.repo.FindByID(ctx, s.db, subID)
	if err != nil {
		return domain.Subscriber{}, err
	}
	return *sub, nil
}

func (s *subscriberService) List(ctx context.Context, req domain.ListSubscribersRequest) (domain.ListSubscribersResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 10
	}

	opts := []option.QueryOption{
		option.WithSortBy("created_at", "desc", map[string]bool{"created_at": true}),
		option.ApplyPagination(pagination.Pagination{PageSize: pageSize}),
	}
	if req.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: req.Status}))
	}
	if req.PlanID != "" {
		planID, err := snowflake.ParseString(req.PlanID)
		if err != nil {
			return domain.ListSubscribersResponse{}, plandomain.ErrPlanNotFound
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "plan_id", Operator: option.EQ, Value: planID}))
	}
	if q := strings.TrimSpace(req.Query); q != "" {
		opts = append(opts, searchOption{query: q})
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListSubscribersResponse{}, err
		}
		opts = append(opts, option.ApplyCursor(*cursor))
	}

	subs, err := s.repo.List(ctx, s.db, opts...)
	if err != nil {
		return domain.ListSubscribersResponse{}, err
	}

	var resp domain.ListSubscribersResponse
	resp.Subscribers, resp.PageInfo, err = pagination.BuildCursorPageInfo(subs, pageSize, func(sub domain.Subscriber) pagination.Cursor {
		return pagination.Cursor{
			ID:        sub.ID.String(),
			CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListSubscribersResponse{}, err
	}
	return resp, nil
}

// searchOption matches the free-text query against name, phone or
// customer code.
type searchOption struct {
	query string
}

func (o searchOption) Apply(db *gorm.DB) *gorm.DB {
	pattern := "%" + o.query + "%"
	return db.Where("name LIKE ? OR phone LIKE ? OR customer_code LIKE ?", pattern, pattern, pattern)
}

func validPhone(phone string) bool {
	if len(phone) != 10 {
		return false
	}
	for _, r := range phone {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
