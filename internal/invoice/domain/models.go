// Package domain contains invoice records and the per-day number counter.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the settlement state of an invoice. Renewal charges settle at
// generation time, so every row is written PAID.
type Status string

const StatusPaid Status = "PAID"

// Invoice is a renewal charge. Amount columns hold paise; the plan name and
// monthly price are snapshotted so later catalog edits do not rewrite
// history. Renewal invoices are written PAID; the settlement method may
// arrive later, when the field crew collects.
type Invoice struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	InvoiceNumber string       `gorm:"type:text;not null;uniqueIndex" json:"invoice_number"`
	SubscriberID  snowflake.ID `gorm:"not null;index" json:"subscriber_id"`
	PlanID        snowflake.ID `gorm:"not null" json:"plan_id"`
	PlanName      string       `gorm:"type:text;not null" json:"plan_name"`

	MonthsRenewed int       `gorm:"not null" json:"months_renewed"`
	OldExpiryDate time.Time `gorm:"not null" json:"old_expiry_date"`
	NewExpiryDate time.Time `gorm:"not null" json:"new_expiry_date"`
	PeriodLabel   string    `gorm:"type:text;not null" json:"period_label"`

	MonthlyPricePaise  int64 `gorm:"not null" json:"monthly_price_paise"`
	PlanChargePaise    int64 `gorm:"not null" json:"plan_charge_paise"`
	OldPendingPaise    int64 `gorm:"not null;default:0" json:"old_pending_paise"`
	SubtotalPaise      int64 `gorm:"not null" json:"subtotal_paise"`
	GSTRateBasisPoints int64 `gorm:"not null" json:"gst_rate_basis_points"`
	GSTPaise           int64 `gorm:"not null" json:"gst_paise"`
	TotalPaise         int64 `gorm:"not null" json:"total_paise"`

	Status        Status `gorm:"type:text;not null" json:"status"`
	PaymentMethod string `gorm:"type:text" json:"payment_method"`
	GeneratedBy   string `gorm:"type:text;not null" json:"generated_by"`
	PDFFilepath   string `gorm:"type:text" json:"pdf_filepath"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Counter allocates gap-free per-day invoice sequences. The row for a day is
// updated under the same transaction that inserts the invoice, so two
// concurrent renewals can never observe the same sequence.
type Counter struct {
	Day time.Time `gorm:"primaryKey" json:"day"`
	Seq int64     `gorm:"not null" json:"seq"`
}

// TableName sets the database table name.
func (Counter) TableName() string { return "invoice_counters" }
