// Package option provides composable query options for the generic store.
package option

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fiberlink/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

type operatorOption struct {
	cond Condition
}

func (o operatorOption) Apply(db *gorm.DB) *gorm.DB {
	return db.Where(fmt.Sprintf("%s %s ?", o.cond.Field, o.cond.Operator), o.cond.Value)
}

func ApplyOperator(cond Condition) QueryOption {
	return operatorOption{cond: cond}
}

type sortOption struct {
	clause string
}

func (o sortOption) Apply(db *gorm.DB) *gorm.DB {
	if o.clause == "" {
		return db
	}
	return db.Order(o.clause)
}

// WithSortBy orders by the given column/direction when the column is allowed.
func WithSortBy(column, direction string, allowed map[string]bool) QueryOption {
	if !allowed[column] {
		return sortOption{}
	}
	if direction != "asc" && direction != "desc" {
		direction = "desc"
	}
	return sortOption{clause: fmt.Sprintf("%s %s", column, direction)}
}

type paginationOption struct {
	p pagination.Pagination
}

func (o paginationOption) Apply(db *gorm.DB) *gorm.DB {
	limit := o.p.PageSize
	if limit <= 0 {
		limit = 10
	}
	// Fetch one extra row so the caller can detect a next page.
	return db.Limit(limit + 1)
}

func ApplyPagination(p pagination.Pagination) QueryOption {
	return paginationOption{p: p}
}

type cursorOption struct {
	cursor pagination.Cursor
}

func (o cursorOption) Apply(db *gorm.DB) *gorm.DB {
	if o.cursor.CreatedAt == "" {
		return db
	}
	// Bind a time value so the comparison follows the driver's own
	// timestamp encoding.
	ts, err := time.Parse(time.RFC3339Nano, o.cursor.CreatedAt)
	if err != nil {
		return db
	}
	var id any = o.cursor.ID
	if n, err := strconv.ParseInt(o.cursor.ID, 10, 64); err == nil {
		id = n
	}
	return db.Where("(created_at, id) < (?, ?)", ts, id)
}

func ApplyCursor(cursor pagination.Cursor) QueryOption {
	return cursorOption{cursor: cursor}
}
