// Package service implements plan catalog operations.
package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/plan/domain"
)

type planService struct {
	log  *zap.Logger
	db   *gorm.DB
	node *snowflake.Node
	repo domain.Repository
}

type Params struct {
	fx.In

	Log  *zap.Logger
	DB   *gorm.DB
	Node *snowflake.Node
	Repo domain.Repository
}

func New(p Params) domain.Service {
	return &planService{
		log:  p.Log.Named("plan.service"),
		db:   p.DB,
		node: p.Node,
		repo: p.Repo,
	}
}

func (s *planService) Create(ctx context.Context, req domain.CreatePlanRequest) (domain.Plan, error) {
	if strings.TrimSpace(req.Name) == "" {
		return domain.Plan{}, domain.ErrInvalidName
	}
	if req.MonthlyPrice <= 0 {
		return domain.Plan{}, domain.ErrInvalidPrice
	}

	plan := domain.Plan{
		ID:           s.node.Generate(),
		Name:         strings.TrimSpace(req.Name),
		MonthlyPrice: req.MonthlyPrice,
		Speed:        req.Speed,
		DataLimit:    req.DataLimit,
		Commitment:   req.Commitment,
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		s.log.Error("failed to create plan", zap.Error(err))
		return domain.Plan{}, err
	}

	s.log.Info("plan created",
		zap.String("plan_id", plan.ID.String()),
		zap.String("name", plan.Name),
		zap.Int64("monthly_price", plan.MonthlyPrice),
	)
	return plan, nil
}

func (s *planService) Update(ctx context.Context, id string, req domain.UpdatePlanRequest) (domain.Plan, error) {
	planID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Plan{}, domain.ErrPlanNotFound
	}

	var updated domain.Plan
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := s.repo.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return domain.ErrInvalidName
			}
			plan.Name = strings.TrimSpace(*req.Name)
		}
		if req.MonthlyPrice != nil {
			if *req.MonthlyPrice <= 0 {
				return domain.ErrInvalidPrice
			}
			plan.MonthlyPrice = *req.MonthlyPrice
		}
		if req.Speed != nil {
			plan.Speed = *req.Speed
		}
		if req.DataLimit != nil {
			plan.DataLimit = *req.DataLimit
		}
		if req.Commitment != nil {
			plan.Commitment = *req.Commitment
		}

		if err := s.repo.Update(ctx, tx, plan); err != nil {
			return err
		}
		updated = *plan
		return nil
	})
	if err != nil {
		return domain.Plan{}, err
	}
	return updated, nil
}

func (s *planService) Delete(ctx context.Context, id string) error {
	planID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.ErrPlanNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.repo.FindByID(ctx, tx, planID); err != nil {
			return err
		}

		count, err := s.repo.CountSubscribers(ctx, tx, planID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrPlanInUse
		}

		return s.repo.Delete(ctx, tx, planID)
	})
}

func (s *planService) GetByID(ctx context.Context, id string) (domain.Plan, error) {
	planID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Plan{}, domain.ErrPlanNotFound
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return domain.Plan{}, err
	}
	return *plan, nil
}

func (s *planService) List(ctx context.Context) ([]domain.Plan, error) {
	return s.repo.List(ctx, s.db)
}
