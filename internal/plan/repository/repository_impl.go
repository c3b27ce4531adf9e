// Package repository implements the plan catalog store on the generic store.
package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/plan/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
	"github.com/fiberlink/backoffice/pkg/db/option"
	"github.com/fiberlink/backoffice/pkg/repository"
)

var sortColumns = map[string]bool{"monthly_price": true}

type planRepository struct{}

func New() domain.Repository {
	return &planRepository{}
}

func (r *planRepository) store(db *gorm.DB) repository.Repository[domain.Plan] {
	return repository.ProvideStore[domain.Plan](db)
}

func (r *planRepository) Insert(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return r.store(db).Create(ctx, plan)
}

func (r *planRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Plan, error) {
	plan, err := r.store(db).FindOne(ctx, &domain.Plan{ID: id})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (r *planRepository) List(ctx context.Context, db *gorm.DB) ([]domain.Plan, error) {
	rows, err := r.store(db).Find(ctx, &domain.Plan{},
		option.WithSortBy("monthly_price", "asc", sortColumns))
	if err != nil {
		return nil, err
	}

	plans := make([]domain.Plan, 0, len(rows))
	for _, row := range rows {
		plans = append(plans, *row)
	}
	return plans, nil
}

func (r *planRepository) Update(ctx context.Context, db *gorm.DB, plan *domain.Plan) error {
	return db.WithContext(ctx).Save(plan).Error
}

func (r *planRepository) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Delete(&domain.Plan{}, "id = ?", id).Error
}

func (r *planRepository) CountSubscribers(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&subscriberdomain.Subscriber{}).
		Where("plan_id = ?", id).
		Count(&count).Error
	return count, err
}
