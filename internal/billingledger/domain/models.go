// Package domain contains the billing ledger audit trail.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Category classifies what kind of change a ledger entry records.
type Category string

const (
	CategoryBillingUpdate       Category = "billing_update"
	CategoryPaymentVerification Category = "payment_verification"
	CategoryPlanChange          Category = "plan_change"
	CategoryCorrection          Category = "correction"
)

// Entry is one row of the ledger. Entries are append-only; an amendment to a
// historical entry always leaves a correction entry behind in the same
// transaction, so the trail shows both the fix and the fact that it happened.
type Entry struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriberID snowflake.ID `gorm:"not null;index" json:"subscriber_id"`
	Category     Category     `gorm:"type:text;not null" json:"category"`

	PrevPaymentStatus string        `gorm:"type:text" json:"prev_payment_status"`
	NewPaymentStatus  string        `gorm:"type:text" json:"new_payment_status"`
	PrevPendingAmount int64         `gorm:"not null;default:0" json:"prev_pending_amount"`
	NewPendingAmount  int64         `gorm:"not null;default:0" json:"new_pending_amount"`
	PrevPaymentDue    *time.Time    `json:"prev_payment_due,omitempty"`
	NewPaymentDue     *time.Time    `json:"new_payment_due,omitempty"`
	PrevPlanID        *snowflake.ID `json:"prev_plan_id,omitempty"`
	NewPlanID         *snowflake.ID `json:"new_plan_id,omitempty"`
	PrevPlanName      string        `gorm:"type:text" json:"prev_plan_name"`
	NewPlanName       string        `gorm:"type:text" json:"new_plan_name"`

	ChangedBy string            `gorm:"type:text;not null" json:"changed_by"`
	ActorType string            `gorm:"type:text;not null" json:"actor_type"`
	Notes     string            `gorm:"type:text" json:"notes"`
	Metadata  datatypes.JSONMap `json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "billing_ledger_entries" }

// ValidCategory reports whether c is a known entry category.
func ValidCategory(c Category) bool {
	switch c {
	case CategoryBillingUpdate, CategoryPaymentVerification, CategoryPlanChange, CategoryCorrection:
		return true
	}
	return false
}
