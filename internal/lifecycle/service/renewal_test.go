package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/actorcontext"
	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
	ledgerrepo "github.com/fiberlink/backoffice/internal/billingledger/repository"
	ledgerservice "github.com/fiberlink/backoffice/internal/billingledger/service"
	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	invoicerepo "github.com/fiberlink/backoffice/internal/invoice/repository"
	invoiceservice "github.com/fiberlink/backoffice/internal/invoice/service"
	"github.com/fiberlink/backoffice/internal/lifecycle/domain"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	planrepo "github.com/fiberlink/backoffice/internal/plan/repository"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
	subscriberrepo "github.com/fiberlink/backoffice/internal/subscriber/repository"
)

type fixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clock    *clock.FakeClock
	svc      domain.Service
	invoices invoicedomain.Service
	phoneSeq int
}

func setupLifecycleTest(t *testing.T, now time.Time) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&plandomain.Plan{},
		&subscriberdomain.Subscriber{},
		&ledgerdomain.Entry{},
		&invoicedomain.Invoice{},
		&invoicedomain.Counter{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(now)
	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	log := zap.NewNop()

	subRepo := subscriberrepo.New()
	planRepo := planrepo.New()

	invoiceSvc := invoiceservice.New(invoiceservice.Params{
		Log:     log,
		DB:      db,
		Node:    node,
		Clock:   fc,
		Billing: holder,
		Repo:    invoicerepo.New(),
	})
	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		Log:   log,
		DB:    db,
		Node:  node,
		Clock: fc,
		Repo:  ledgerrepo.New(),
	})

	svc := New(Params{
		Log:        log,
		DB:         db,
		Clock:      fc,
		Billing:    holder,
		SubRepo:    subRepo,
		PlanRepo:   planRepo,
		InvoiceSvc: invoiceSvc,
		LedgerSvc:  ledgerSvc,
	})

	return &fixture{db: db, node: node, clock: fc, svc: svc, invoices: invoiceSvc}
}

func (f *fixture) seedPlan(t *testing.T, priceRupees int64) plandomain.Plan {
	t.Helper()
	plan := plandomain.Plan{
		ID:           f.node.Generate(),
		Name:         "Giga 200",
		MonthlyPrice: priceRupees * 100,
		Speed:        "200 Mbps",
		DataLimit:    "Unlimited",
		Commitment:   "Monthly",
	}
	require.NoError(t, f.db.Create(&plan).Error)
	return plan
}

func (f *fixture) seedSubscriber(t *testing.T, plan plandomain.Plan, status subscriberdomain.Status, expiry time.Time) subscriberdomain.Subscriber {
	t.Helper()
	f.phoneSeq++
	sub := subscriberdomain.Subscriber{
		ID:             f.node.Generate(),
		CustomerCode:   "CUST-" + f.node.Generate().String(),
		Name:           "Asha Rao",
		Phone:          fmt.Sprintf("98%08d", f.phoneSeq),
		PlanID:         plan.ID,
		PlanStartDate:  expiry.AddDate(0, -1, 0),
		PlanExpiryDate: expiry,
		PaymentDueDate: expiry,
		PaymentStatus:  subscriberdomain.PaymentPending,
		IsPlanActive:   status == subscriberdomain.StatusActive,
		Status:         status,
	}
	require.NoError(t, f.db.Create(&sub).Error)
	return sub
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func adminCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.ActorTypeAdmin, "ops@fiberlink")
}

func TestRenewExtendsWithCalendarClamping(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 20))
	plan := f.seedPlan(t, 999)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.January, 31))

	resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 1, PaymentMethod: "UPI"})
	require.NoError(t, err)

	// Jan 31 + 1 month clamps to Feb 28.
	assert.Equal(t, date(2025, time.February, 28), resp.Subscriber.PlanExpiryDate)
	assert.Equal(t, domain.ActionExtended, resp.Action)
	assert.Equal(t, subscriberdomain.StatusActive, resp.Subscriber.Status)
	assert.True(t, resp.Subscriber.IsPlanActive)
	assert.Equal(t, subscriberdomain.PaymentVerifiedByUPI, resp.Subscriber.PaymentStatus)
	assert.Equal(t, date(2025, time.February, 4), resp.Subscriber.PaymentDueDate)
	require.NotNil(t, resp.Subscriber.LastRenewalDate)
}

func TestRenewReactivatesExpiredSubscriber(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.March, 10))
	plan := f.seedPlan(t, 599)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusExpired, date(2025, time.February, 15))

	resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 2})
	require.NoError(t, err)

	assert.Equal(t, subscriberdomain.StatusActive, resp.Subscriber.Status)
	assert.True(t, resp.Subscriber.IsPlanActive)
	// Extension is anchored on the lapsed expiry, not on today.
	assert.Equal(t, date(2025, time.April, 15), resp.Subscriber.PlanExpiryDate)
}

func TestRenewGeneratesInvoiceWithGST(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 17))
	plan := f.seedPlan(t, 999)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.February, 1))

	resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 1, PaymentMethod: "CASH"})
	require.NoError(t, err)
	require.NotNil(t, resp.Invoice)

	inv := resp.Invoice
	assert.Equal(t, "INV-20250117-0001", inv.InvoiceNumber)
	assert.Equal(t, "Giga 200", inv.PlanName)
	assert.Equal(t, int64(99900), inv.MonthlyPricePaise)
	assert.Equal(t, int64(99900), inv.SubtotalPaise)
	assert.Equal(t, int64(17982), inv.GSTPaise)   // 18% of 999.00
	assert.Equal(t, int64(117882), inv.TotalPaise) // 1178.82
	assert.Equal(t, invoicedomain.StatusPaid, inv.Status)
	assert.Equal(t, "CASH", inv.PaymentMethod)
	assert.Equal(t, "Feb 2025 - Mar 2025", inv.PeriodLabel)
}

func TestRenewRollsPendingBalanceIntoInvoice(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 17))
	plan := f.seedPlan(t, 799)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.February, 1))
	require.NoError(t, f.db.Model(&subscriberdomain.Subscriber{}).
		Where("id = ?", sub.ID).Update("old_pending_amount", 200).Error)

	resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 2, PaymentMethod: "UPI"})
	require.NoError(t, err)
	require.NotNil(t, resp.Invoice)

	// 2 x 799.00 + 200.00 pending = 1798.00, GST 323.64, total 2121.64.
	assert.Equal(t, int64(159800), resp.Invoice.PlanChargePaise)
	assert.Equal(t, int64(20000), resp.Invoice.OldPendingPaise)
	assert.Equal(t, int64(179800), resp.Invoice.SubtotalPaise)
	assert.Equal(t, int64(32364), resp.Invoice.GSTPaise)
	assert.Equal(t, int64(212164), resp.Invoice.TotalPaise)

	// The invoice settles the whole balance, so the renewal clears the
	// carried debt and resets the payment fields alongside the new expiry.
	assert.Equal(t, int64(0), resp.Subscriber.OldPendingAmount)
	assert.Equal(t, subscriberdomain.PaymentVerifiedByUPI, resp.Subscriber.PaymentStatus)
	assert.Equal(t, date(2025, time.February, 1), resp.Subscriber.PaymentDueDate)
	assert.Equal(t, date(2025, time.April, 1), resp.Subscriber.PlanExpiryDate)
	assert.Equal(t, subscriberdomain.StatusActive, resp.Subscriber.Status)
	assert.True(t, resp.Subscriber.IsPlanActive)
	require.NotNil(t, resp.Subscriber.LastRenewalDate)
}

func TestReduceShortensExpiryWithoutInvoice(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 10))
	plan := f.seedPlan(t, 999)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.April, 15))

	resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: -2})
	require.NoError(t, err)

	assert.Equal(t, date(2025, time.February, 15), resp.Subscriber.PlanExpiryDate)
	assert.Equal(t, domain.ActionReduced, resp.Action)
	assert.Nil(t, resp.Invoice)

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestReduceBelowTodayRejectedWithoutWrites(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.March, 10))
	plan := f.seedPlan(t, 999)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.April, 15))

	_, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: -2})
	require.ErrorIs(t, err, domain.ErrReductionBeforeToday)

	var got subscriberdomain.Subscriber
	require.NoError(t, f.db.First(&got, "id = ?", sub.ID).Error)
	assert.Equal(t, date(2025, time.April, 15), got.PlanExpiryDate)
	assert.Equal(t, subscriberdomain.StatusActive, got.Status)
}

func TestRenewRejectsInvalidMonths(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 10))
	plan := f.seedPlan(t, 999)
	sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.February, 1))

	for _, months := range []int{0, 13, -13} {
		_, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: months})
		assert.ErrorIs(t, err, domain.ErrInvalidMonths, "months=%d", months)
	}
}

func TestRenewRejectedBeforeInstallation(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 10))
	plan := f.seedPlan(t, 999)

	for _, status := range []subscriberdomain.Status{
		subscriberdomain.StatusPendingInstallation,
		subscriberdomain.StatusInstallationScheduled,
	} {
		sub := f.seedSubscriber(t, plan, status, date(2025, time.January, 10))
		_, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 1})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition, "status=%s", status)
	}

	var count int64
	require.NoError(t, f.db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSameDayInvoiceNumbersAreGapFree(t *testing.T) {
	f := setupLifecycleTest(t, date(2025, time.January, 17))
	plan := f.seedPlan(t, 599)

	numbers := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		sub := f.seedSubscriber(t, plan, subscriberdomain.StatusActive, date(2025, time.February, 1))
		resp, err := f.svc.RenewOrReduce(adminCtx(), sub.ID.String(), domain.RenewRequest{Months: 1})
		require.NoError(t, err)
		require.NotNil(t, resp.Invoice)
		numbers = append(numbers, resp.Invoice.InvoiceNumber)
	}

	assert.Equal(t, []string{
		"INV-20250117-0001",
		"INV-20250117-0002",
		"INV-20250117-0003",
	}, numbers)
}
