// Package domain contains the subscriber record and its lifecycle vocabulary.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the subscriber lifecycle state.
type Status string

const (
	StatusPendingInstallation   Status = "PENDING_INSTALLATION"
	StatusInstallationScheduled Status = "INSTALLATION_SCHEDULED"
	StatusActive                Status = "ACTIVE"
	StatusExpired               Status = "EXPIRED"
	StatusSuspended             Status = "SUSPENDED"
)

// PaymentStatus records how the latest payment was settled, if at all.
type PaymentStatus string

const (
	PaymentPending        PaymentStatus = "PENDING"
	PaymentVerifiedByCash PaymentStatus = "VERIFIED_BY_CASH"
	PaymentVerifiedByUPI  PaymentStatus = "VERIFIED_BY_UPI"
)

// Subscriber is one broadband connection. Date columns hold UTC midnight;
// IsPlanActive is true only while Status is ACTIVE.
type Subscriber struct {
	ID               snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerCode     string        `gorm:"type:text;not null;uniqueIndex" json:"customer_code"`
	Name             string        `gorm:"type:text;not null" json:"name"`
	Phone            string        `gorm:"type:text;not null;uniqueIndex" json:"phone"`
	Email            string        `gorm:"type:text" json:"email"`
	Address          string        `gorm:"type:text" json:"address"`
	PlanID           snowflake.ID  `gorm:"not null;index" json:"plan_id"`
	PlanStartDate    time.Time     `gorm:"not null" json:"plan_start_date"`
	PlanExpiryDate   time.Time     `gorm:"not null" json:"plan_expiry_date"`
	PaymentDueDate   time.Time     `gorm:"not null" json:"payment_due_date"`
	PaymentStatus    PaymentStatus `gorm:"type:text;not null" json:"payment_status"`
	OldPendingAmount int64         `gorm:"not null;default:0" json:"old_pending_amount"` // rupees
	IsPlanActive     bool          `gorm:"not null;default:false;index" json:"is_plan_active"`
	Status           Status        `gorm:"type:text;not null;index" json:"status"`
	LastRenewalDate  *time.Time    `json:"last_renewal_date,omitempty"`
	InstallationDate *time.Time    `json:"installation_date,omitempty"`
	CreatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_subscribers_cursor,priority:1" json:"created_at"`
	UpdatedAt        time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscriber) TableName() string { return "subscribers" }

// ValidPaymentStatus reports whether s is one of the known settlement states.
func ValidPaymentStatus(s PaymentStatus) bool {
	switch s {
	case PaymentPending, PaymentVerifiedByCash, PaymentVerifiedByUPI:
		return true
	}
	return false
}
