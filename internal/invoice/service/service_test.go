package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/invoice/domain"
	"github.com/fiberlink/backoffice/internal/invoice/repository"
)

func TestGSTPaise(t *testing.T) {
	// 18% of 999.00 is exactly 179.82.
	assert.Equal(t, int64(17982), GSTPaise(99900, 1800))
	// 18% of 333.33 is 59.9994, rounded half up to 60.00.
	assert.Equal(t, int64(6000), GSTPaise(33333, 1800))
	// 18% of 1798.00 is exactly 323.64.
	assert.Equal(t, int64(32364), GSTPaise(179800, 1800))
	assert.Equal(t, int64(0), GSTPaise(0, 1800))
	// Zero rate yields zero tax.
	assert.Equal(t, int64(0), GSTPaise(99900, 0))
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "Jan 2025 - Mar 2025",
		PeriodLabel(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)))
	// A period inside one month collapses to that month.
	assert.Equal(t, "Feb 2025",
		PeriodLabel(time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dec 2024 - Jan 2025",
		PeriodLabel(time.Date(2024, time.December, 10, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC)))
}

func setupInvoiceTest(t *testing.T, now time.Time) (*gorm.DB, domain.Service, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}, &domain.Counter{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		Log:     zap.NewNop(),
		DB:      db,
		Node:    node,
		Clock:   clock.NewFakeClock(now),
		Billing: config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		Repo:    repository.New(),
	})
	return db, svc, node
}

func generateInTx(t *testing.T, db *gorm.DB, svc domain.Service, req domain.GenerateRequest) domain.Invoice {
	t.Helper()
	var inv domain.Invoice
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		inv, err = svc.Generate(context.Background(), tx, req)
		return err
	})
	require.NoError(t, err)
	return inv
}

func TestGenerateAllocatesSequentialNumbers(t *testing.T) {
	now := time.Date(2025, time.January, 17, 11, 0, 0, 0, time.UTC)
	db, svc, node := setupInvoiceTest(t, now)

	req := domain.GenerateRequest{
		SubscriberID:  node.Generate(),
		PlanID:        node.Generate(),
		PlanName:      "Giga 200",
		MonthlyPrice:  99900,
		MonthsRenewed: 1,
		OldExpiryDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		NewExpiryDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	first := generateInTx(t, db, svc, req)
	second := generateInTx(t, db, svc, req)

	assert.Equal(t, "INV-20250117-0001", first.InvoiceNumber)
	assert.Equal(t, "INV-20250117-0002", second.InvoiceNumber)
	assert.Equal(t, domain.StatusPaid, first.Status)
	assert.Equal(t, int64(99900), first.MonthlyPricePaise)
}

func TestGeneratePeriodStartsAfterOldExpiry(t *testing.T) {
	now := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)
	db, svc, node := setupInvoiceTest(t, now)

	// A Jan 31 expiry renewed by one month covers February only; the paid
	// period begins the day after the old expiry, not on it.
	inv := generateInTx(t, db, svc, domain.GenerateRequest{
		SubscriberID:  node.Generate(),
		PlanID:        node.Generate(),
		PlanName:      "Giga 200",
		MonthlyPrice:  99900,
		MonthsRenewed: 1,
		OldExpiryDate: time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC),
		NewExpiryDate: time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "Feb 2025", inv.PeriodLabel)
}

func TestGenerateRollbackLeavesNoGap(t *testing.T) {
	now := time.Date(2025, time.January, 17, 11, 0, 0, 0, time.UTC)
	db, svc, node := setupInvoiceTest(t, now)

	req := domain.GenerateRequest{
		SubscriberID:  node.Generate(),
		PlanID:        node.Generate(),
		PlanName:      "Giga 200",
		MonthlyPrice:  99900,
		MonthsRenewed: 1,
		OldExpiryDate: time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		NewExpiryDate: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
	}

	// A transaction that rolls back after generating must release its
	// sequence along with the invoice row.
	rollback := assert.AnError
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Generate(context.Background(), tx, req); err != nil {
			return err
		}
		return rollback
	})
	require.ErrorIs(t, err, rollback)

	inv := generateInTx(t, db, svc, req)
	assert.Equal(t, "INV-20250117-0001", inv.InvoiceNumber)
}

func TestRecordPayment(t *testing.T) {
	now := time.Date(2025, time.January, 17, 11, 0, 0, 0, time.UTC)
	db, svc, node := setupInvoiceTest(t, now)

	// Generated with no method: already PAID, settlement method unknown.
	inv := generateInTx(t, db, svc, domain.GenerateRequest{
		SubscriberID:  node.Generate(),
		PlanID:        node.Generate(),
		PlanName:      "Basic 40",
		MonthlyPrice:  39900,
		MonthsRenewed: 1,
		OldExpiryDate: now,
		NewExpiryDate: now.AddDate(0, 1, 0),
	})
	assert.Equal(t, domain.StatusPaid, inv.Status)
	assert.Empty(t, inv.PaymentMethod)

	paid, err := svc.RecordPayment(context.Background(), inv.ID.String(), "UPI")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, paid.Status)
	assert.Equal(t, "UPI", paid.PaymentMethod)

	// The method can only be recorded once.
	_, err = svc.RecordPayment(context.Background(), inv.ID.String(), "CASH")
	assert.ErrorIs(t, err, domain.ErrPaymentAlreadyRecorded)

	_, err = svc.RecordPayment(context.Background(), inv.ID.String(), "CHEQUE")
	assert.ErrorIs(t, err, domain.ErrInvalidPaymentMethod)
}

func TestRecordPaymentRejectsInvoiceSettledAtGeneration(t *testing.T) {
	now := time.Date(2025, time.January, 17, 11, 0, 0, 0, time.UTC)
	db, svc, node := setupInvoiceTest(t, now)

	inv := generateInTx(t, db, svc, domain.GenerateRequest{
		SubscriberID:  node.Generate(),
		PlanID:        node.Generate(),
		PlanName:      "Basic 40",
		MonthlyPrice:  39900,
		MonthsRenewed: 1,
		OldExpiryDate: now,
		NewExpiryDate: now.AddDate(0, 1, 0),
		PaymentMethod: "CASH",
	})

	_, err := svc.RecordPayment(context.Background(), inv.ID.String(), "UPI")
	assert.ErrorIs(t, err, domain.ErrPaymentAlreadyRecorded)
}
