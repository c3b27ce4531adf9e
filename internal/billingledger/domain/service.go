package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

// Snapshot captures the billing-relevant fields of a subscriber at one point
// in time. RecordChange stores a before and an after snapshot side by side.
type Snapshot struct {
	PaymentStatus string
	PendingAmount int64
	PaymentDue    *time.Time
	PlanID        *snowflake.ID
	PlanName      string
}

type RecordChangeRequest struct {
	SubscriberID snowflake.ID
	Category     Category
	Before       Snapshot
	After        Snapshot
	Notes        string
	Metadata     map[string]any
}

type CorrectEntryRequest struct {
	Notes    *string        `json:"notes,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Reason   string         `json:"reason"`
}

type ListEntriesRequest struct {
	SubscriberID string   `form:"-"`
	Category     Category `form:"category"`
	PageSize     int      `form:"page_size"`
	PageToken    string   `form:"page_token"`
}

type ListEntriesResponse struct {
	Entries  []Entry             `json:"entries"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// RecordChange appends an entry using the given handle, which may be a
	// transaction shared with the state change being recorded.
	RecordChange(ctx context.Context, tx *gorm.DB, req RecordChangeRequest) (Entry, error)
	CorrectEntry(ctx context.Context, entryID string, req CorrectEntryRequest) (Entry, error)
	List(ctx context.Context, req ListEntriesRequest) (ListEntriesResponse, error)
}

var (
	ErrEntryNotFound   = errors.New("ledger_entry_not_found")
	ErrInvalidCategory = errors.New("invalid_ledger_category")
	ErrEmptyCorrection = errors.New("empty_correction")
	ErrMissingReason   = errors.New("missing_correction_reason")
)
