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
	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	planrepo "github.com/fiberlink/backoffice/internal/plan/repository"
	"github.com/fiberlink/backoffice/internal/subscriber/domain"
	"github.com/fiberlink/backoffice/internal/subscriber/repository"
)

func setupSubscriberTest(t *testing.T, now time.Time) (*gorm.DB, domain.Service, plandomain.Plan) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&plandomain.Plan{}, &domain.Subscriber{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	plan := plandomain.Plan{
		ID:           node.Generate(),
		Name:         "Standard 100",
		MonthlyPrice: 59900,
		Speed:        "100 Mbps",
		DataLimit:    "Unlimited",
		Commitment:   "Monthly",
	}
	require.NoError(t, db.Create(&plan).Error)

	svc := New(Params{
		Log:      zap.NewNop(),
		DB:       db,
		Node:     node,
		Clock:    clock.NewFakeClock(now),
		Billing:  config.NewStaticBillingConfigHolder(config.DefaultBillingConfig()),
		Repo:     repository.New(),
		PlanRepo: planrepo.New(),
	})
	return db, svc, plan
}

func createReq(plan plandomain.Plan, seq int) domain.CreateSubscriberRequest {
	return domain.CreateSubscriberRequest{
		CustomerCode: fmt.Sprintf("FL-%04d", seq),
		Name:         "Asha Rao",
		Phone:        fmt.Sprintf("98%08d", seq),
		Email:        "asha@example.com",
		Address:      "14 MG Road",
		PlanID:       plan.ID.String(),
	}
}

func TestAdminCreateStartsActiveBillingCycle(t *testing.T) {
	today := time.Date(2025, time.January, 31, 9, 0, 0, 0, time.UTC)
	_, svc, plan := setupSubscriberTest(t, today)

	ctx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeAdmin, "ops@fiberlink")
	sub, err := svc.Create(ctx, createReq(plan, 1))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusActive, sub.Status)
	assert.True(t, sub.IsPlanActive)
	assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), sub.PlanStartDate)
	// Jan 31 + 1 month clamps to Feb 28.
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), sub.PlanExpiryDate)
	assert.Equal(t, time.Date(2025, time.February, 15, 0, 0, 0, 0, time.UTC), sub.PaymentDueDate)
	assert.Equal(t, domain.PaymentPending, sub.PaymentStatus)
}

func TestEngineerCreateAwaitsInstallation(t *testing.T) {
	today := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	_, svc, plan := setupSubscriberTest(t, today)

	ctx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeEngineer, "field-eng-7")
	sub, err := svc.Create(ctx, createReq(plan, 2))
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPendingInstallation, sub.Status)
	assert.False(t, sub.IsPlanActive)
}

func TestCreateValidation(t *testing.T) {
	today := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	_, svc, plan := setupSubscriberTest(t, today)
	ctx := context.Background()

	req := createReq(plan, 3)
	req.Phone = "12345"
	_, err := svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	req = createReq(plan, 3)
	req.Phone = "98765abc21"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	req = createReq(plan, 3)
	req.CustomerCode = "  "
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidCustomerCode)

	req = createReq(plan, 3)
	req.OldPendingAmount = -1
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, domain.ErrInvalidPendingAmt)

	req = createReq(plan, 3)
	req.PlanID = "999999"
	_, err = svc.Create(ctx, req)
	assert.ErrorIs(t, err, plandomain.ErrPlanNotFound)
}

func TestCreateRejectsDuplicatePhone(t *testing.T) {
	today := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	_, svc, plan := setupSubscriberTest(t, today)
	ctx := context.Background()

	_, err := svc.Create(ctx, createReq(plan, 4))
	require.NoError(t, err)

	dup := createReq(plan, 5)
	dup.Phone = createReq(plan, 4).Phone
	_, err = svc.Create(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrDuplicateSubscriber)
}

func TestListPaginatesWithCursor(t *testing.T) {
	today := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	db, svc, plan := setupSubscriberTest(t, today)
	ctx := context.Background()

	for i := 10; i < 15; i++ {
		sub, err := svc.Create(ctx, createReq(plan, i))
		require.NoError(t, err)
		// Spread created_at so cursor ordering is deterministic.
		require.NoError(t, db.Model(&domain.Subscriber{}).
			Where("id = ?", sub.ID).
			Update("created_at", today.Add(time.Duration(i)*time.Minute)).Error)
	}

	resp, err := svc.List(ctx, domain.ListSubscribersRequest{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, resp.Subscribers, 2)
	assert.True(t, resp.PageInfo.HasMore)
	require.NotEmpty(t, resp.PageInfo.NextPageToken)

	resp2, err := svc.List(ctx, domain.ListSubscribersRequest{
		PageSize:  2,
		PageToken: resp.PageInfo.NextPageToken,
	})
	require.NoError(t, err)
	assert.Len(t, resp2.Subscribers, 2)
	for _, earlier := range resp2.Subscribers {
		for _, later := range resp.Subscribers {
			assert.True(t, earlier.CreatedAt.Before(later.CreatedAt))
		}
	}
}

func TestListFiltersByStatus(t *testing.T) {
	today := time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC)
	_, svc, plan := setupSubscriberTest(t, today)

	adminCtx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeAdmin, "ops")
	engCtx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeEngineer, "eng")

	_, err := svc.Create(adminCtx, createReq(plan, 20))
	require.NoError(t, err)
	_, err = svc.Create(engCtx, createReq(plan, 21))
	require.NoError(t, err)

	resp, err := svc.List(context.Background(), domain.ListSubscribersRequest{
		Status: domain.StatusPendingInstallation,
	})
	require.NoError(t, err)
	require.Len(t, resp.Subscribers, 1)
	assert.Equal(t, domain.StatusPendingInstallation, resp.Subscribers[0].Status)
}
