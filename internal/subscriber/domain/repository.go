package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/pkg/db/option"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscriber) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscriber, error)
	// FindByIDForUpdate locks the row for the duration of the surrounding
	// transaction. Callers must pass a tx handle, not the root db.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Subscriber, error)
	List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]Subscriber, error)
	Update(ctx context.Context, db *gorm.DB, sub *Subscriber) error
}
