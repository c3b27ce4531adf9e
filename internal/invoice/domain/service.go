package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

// GenerateRequest carries everything the generator needs that is already
// known to the caller, so invoice generation never re-reads subscriber state.
type GenerateRequest struct {
	SubscriberID    snowflake.ID
	PlanID          snowflake.ID
	PlanName        string
	MonthlyPrice    int64 // paise
	MonthsRenewed   int
	OldExpiryDate   time.Time
	NewExpiryDate   time.Time
	OldPendingPaise int64
	PaymentMethod   string
	GeneratedBy     string
}

type ListInvoicesRequest struct {
	SubscriberID string `form:"-"`
	Status       Status `form:"status"`
	PageSize     int    `form:"page_size"`
	PageToken    string `form:"page_token"`
}

type ListInvoicesResponse struct {
	Invoices []Invoice           `json:"invoices"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// Generate creates an invoice inside the caller's transaction. The
	// invoice number is allocated from the per-day counter under the same
	// transaction, so a rollback releases the sequence with no gap.
	Generate(ctx context.Context, tx *gorm.DB, req GenerateRequest) (Invoice, error)
	// AttachPDF records the rendered file path. It runs outside the
	// generating transaction; a failure leaves the invoice valid.
	AttachPDF(ctx context.Context, id snowflake.ID, path string) error
	// RecordPayment stores how an invoice generated without a payment
	// method was eventually settled. The method can be recorded once.
	RecordPayment(ctx context.Context, id string, method string) (Invoice, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	List(ctx context.Context, req ListInvoicesRequest) (ListInvoicesResponse, error)
}

var (
	ErrInvoiceNotFound        = errors.New("invoice_not_found")
	ErrInvalidPaymentMethod   = errors.New("invalid_payment_method")
	ErrPaymentAlreadyRecorded = errors.New("payment_already_recorded")
)
