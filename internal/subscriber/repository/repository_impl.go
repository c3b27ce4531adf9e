// Package repository implements the subscriber store on gorm.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiberlink/backoffice/internal/subscriber/domain"
	"github.com/fiberlink/backoffice/pkg/db/option"
)

type subscriberRepository struct{}

func New() domain.Repository {
	return &subscriberRepository{}
}

func (r *subscriberRepository) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscriber) error {
	return db.WithContext(ctx).Create(sub).Error
}

func (r *subscriberRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscriber, error) {
	var sub domain.Subscriber
	if err := db.WithContext(ctx).First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriberRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Subscriber, error) {
	stmt := tx.WithContext(ctx)
	// SQLite serialises writers itself and rejects FOR UPDATE.
	if tx.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var sub domain.Subscriber
	err := stmt.First(&sub, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *subscriberRepository) List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]domain.Subscriber, error) {
	query := db.WithContext(ctx).Model(&domain.Subscriber{})
	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var subs []domain.Subscriber
	if err := query.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *subscriberRepository) Update(ctx context.Context, db *gorm.DB, sub *domain.Subscriber) error {
	return db.WithContext(ctx).Save(sub).Error
}
