package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/pkg/db/option"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, inv *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]Invoice, error)
	Update(ctx context.Context, db *gorm.DB, inv *Invoice) error
	// NextSeq increments and returns the per-day counter under tx.
	NextSeq(ctx context.Context, tx *gorm.DB, day time.Time) (int64, error)
}
