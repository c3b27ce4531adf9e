package domain

import (
	"context"
	"errors"
	"time"

	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type RenewRequest struct {
	// Months extends the plan when positive and walks an erroneous
	// extension back when negative. Zero is rejected.
	Months        int    `json:"months"`
	PaymentMethod string `json:"payment_method"` // CASH, UPI or empty
}

const (
	ActionExtended = "extended"
	ActionReduced  = "reduced"
)

type RenewResponse struct {
	Subscriber subscriberdomain.Subscriber `json:"subscriber"`
	Action     string                      `json:"action"`
	// Invoice is nil for reductions; only extensions bill the customer.
	Invoice *invoicedomain.Invoice `json:"invoice,omitempty"`
}

type UpdateBillingRequest struct {
	PaymentStatus    *subscriberdomain.PaymentStatus `json:"payment_status,omitempty"`
	OldPendingAmount *int64                          `json:"old_pending_amount,omitempty"`
	PaymentDueDate   *time.Time                      `json:"payment_due_date,omitempty"`
	PlanID           *string                         `json:"plan_id,omitempty"`
	Notes            string                          `json:"notes"`
}

type ScheduleInstallationRequest struct {
	InstallationDate time.Time `json:"installation_date"`
}

// InvoiceRenderer turns a committed invoice into a PDF on disk. Rendering is
// best effort; the invoice row stays valid when it fails.
type InvoiceRenderer interface {
	RenderInvoice(ctx context.Context, inv invoicedomain.Invoice, sub subscriberdomain.Subscriber) (string, error)
}

type Service interface {
	RenewOrReduce(ctx context.Context, subscriberID string, req RenewRequest) (RenewResponse, error)
	UpdateBilling(ctx context.Context, subscriberID string, req UpdateBillingRequest) (subscriberdomain.Subscriber, error)
	ScheduleInstallation(ctx context.Context, subscriberID string, req ScheduleInstallationRequest) (subscriberdomain.Subscriber, error)
	CompleteInstallation(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error)
	Suspend(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error)
	ExpireNow(ctx context.Context, subscriberID string) (subscriberdomain.Subscriber, error)
}

var (
	ErrInvalidTransition    = errors.New("invalid_status_transition")
	ErrInvalidMonths        = errors.New("invalid_renewal_months")
	ErrReductionBeforeToday = errors.New("reduction_before_today")
	ErrPastInstallationDate = errors.New("installation_date_in_past")
	ErrNoBillingChanges     = errors.New("no_billing_changes")
)
