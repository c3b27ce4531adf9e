package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/pkg/db/option"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Entry, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Entry, error)
	List(ctx context.Context, db *gorm.DB, opts ...option.QueryOption) ([]Entry, error)
	Update(ctx context.Context, db *gorm.DB, entry *Entry) error
}
