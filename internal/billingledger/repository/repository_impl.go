// Package repository implements the billing ledger store on gorm.
package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/pkg/db/option"
)

type ledgerRepository struct{}

func New() domain.Repository {
	return &ledgerRepository{}
}

func (r *ledgerRepository) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Create(entry).Error
}

func (r *ledgerRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	var entry domain.Entry
	if err := db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Entry, error) {
	stmt := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var entry domain.Entry
	err := stmt.First(&entry, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *ledgerRepository) List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]domain.Entry, error) {
	query := db.WithContext(ctx).Model(&domain.Entry{})
	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var entries []domain.Entry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *ledgerRepository) Update(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	return db.WithContext(ctx).Save(entry).Error
}
