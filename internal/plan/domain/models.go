// Package domain contains persistence models for the broadband plan catalog.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Plan is a broadband catalog entry. Ledger entries and invoices snapshot the
// plan name and price by value, so catalog edits only affect future billing.
type Plan struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	MonthlyPrice int64        `gorm:"not null" json:"monthly_price"` // paise
	Speed        string       `gorm:"type:text;not null" json:"speed"`
	DataLimit    string       `gorm:"type:text;not null" json:"data_limit"`
	Commitment   string       `gorm:"type:text;not null" json:"commitment"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "broadband_plans" }
