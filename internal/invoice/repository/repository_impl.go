// Package repository implements the invoice store on gorm.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fiberlink/backoffice/internal/invoice/domain"
	"github.com/fiberlink/backoffice/pkg/db"
	"github.com/fiberlink/backoffice/pkg/db/option"
)

type invoiceRepository struct{}

func New() domain.Repository {
	return &invoiceRepository{}
}

func (r *invoiceRepository) Insert(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Create(inv).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := db.WithContext(ctx).First(&inv, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	stmt := tx.WithContext(ctx)
	if tx.Dialector.Name() != "sqlite" {
		stmt = stmt.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var inv domain.Invoice
	err := stmt.First(&inv, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]domain.Invoice, error) {
	query := db.WithContext(ctx).Model(&domain.Invoice{})
	for _, opt := range opts {
		query = opt.Apply(query)
	}

	var invoices []domain.Invoice
	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) Update(ctx context.Context, db *gorm.DB, inv *domain.Invoice) error {
	return db.WithContext(ctx).Save(inv).Error
}

// NextSeq bumps the counter row for the day and reads the new value back.
// The UPDATE takes a row lock, serialising concurrent allocations for the
// same day. A missing row is inserted with seq 1; when two transactions race
// to insert, the loser retries the UPDATE path.
func (r *invoiceRepository) NextSeq(ctx context.Context, tx *gorm.DB, day time.Time) (int64, error) {
	res := tx.WithContext(ctx).
		Model(&domain.Counter{}).
		Where("day = ?", day).
		Update("seq", gorm.Expr("seq + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		err := tx.WithContext(ctx).Create(&domain.Counter{Day: day, Seq: 1}).Error
		if err == nil {
			return 1, nil
		}
		if !db.IsDuplicateKeyErr(err) {
			return 0, err
		}
		res = tx.WithContext(ctx).
			Model(&domain.Counter{}).
			Where("day = ?", day).
			Update("seq", gorm.Expr("seq + 1"))
		if res.Error != nil {
			return 0, res.Error
		}
	}

	var counter domain.Counter
	if err := tx.WithContext(ctx).First(&counter, "day = ?", day).Error; err != nil {
		return 0, err
	}
	return counter.Seq, nil
}
