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

	"github.com/fiberlink/backoffice/internal/actorcontext"
	"github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/internal/billingledger/repository"
	"github.com/fiberlink/backoffice/internal/clock"
)

func setupLedgerTest(t *testing.T) (*gorm.DB, domain.Service, *snowflake.Node, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Entry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fc := clock.NewFakeClock(time.Date(2025, time.January, 17, 10, 0, 0, 0, time.UTC))
	svc := New(Params{
		Log:   zap.NewNop(),
		DB:    db,
		Node:  node,
		Clock: fc,
		Repo:  repository.New(),
	})
	return db, svc, node, fc
}

func TestRecordChangeCapturesActorAndSnapshots(t *testing.T) {
	db, svc, node, _ := setupLedgerTest(t)

	subID := node.Generate()
	due := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	ctx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeAdmin, "ops@fiberlink")

	entry, err := svc.RecordChange(ctx, db, domain.RecordChangeRequest{
		SubscriberID: subID,
		Category:     domain.CategoryPaymentVerification,
		Before:       domain.Snapshot{PaymentStatus: "PENDING", PendingAmount: 200, PaymentDue: &due},
		After:        domain.Snapshot{PaymentStatus: "VERIFIED_BY_UPI", PendingAmount: 0, PaymentDue: &due},
		Notes:        "verified over counter",
	})
	require.NoError(t, err)

	assert.Equal(t, "ops@fiberlink", entry.ChangedBy)
	assert.Equal(t, actorcontext.ActorTypeAdmin, entry.ActorType)
	assert.Equal(t, "PENDING", entry.PrevPaymentStatus)
	assert.Equal(t, "VERIFIED_BY_UPI", entry.NewPaymentStatus)
	assert.Equal(t, int64(200), entry.PrevPendingAmount)
	assert.Equal(t, int64(0), entry.NewPendingAmount)
}

func TestRecordChangeDefaultsToSystemActor(t *testing.T) {
	db, svc, node, _ := setupLedgerTest(t)

	entry, err := svc.RecordChange(context.Background(), db, domain.RecordChangeRequest{
		SubscriberID: node.Generate(),
		Category:     domain.CategoryBillingUpdate,
	})
	require.NoError(t, err)
	assert.Equal(t, actorcontext.ActorTypeSystem, entry.ActorType)
}

func TestRecordChangeRejectsUnknownCategory(t *testing.T) {
	db, svc, node, _ := setupLedgerTest(t)

	_, err := svc.RecordChange(context.Background(), db, domain.RecordChangeRequest{
		SubscriberID: node.Generate(),
		Category:     domain.Category("adjustment"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidCategory)
}

func TestCorrectEntryAmendsAndAppendsCorrection(t *testing.T) {
	db, svc, node, _ := setupLedgerTest(t)

	subID := node.Generate()
	ctx := actorcontext.WithActor(context.Background(), actorcontext.ActorTypeAdmin, "ops@fiberlink")
	entry, err := svc.RecordChange(ctx, db, domain.RecordChangeRequest{
		SubscriberID: subID,
		Category:     domain.CategoryBillingUpdate,
		Notes:        "dues cleared",
	})
	require.NoError(t, err)

	newNotes := "dues cleared via UPI ref 991"
	amended, err := svc.CorrectEntry(ctx, entry.ID.String(), domain.CorrectEntryRequest{
		Notes:  &newNotes,
		Reason: "wrong payment reference recorded",
	})
	require.NoError(t, err)
	assert.Equal(t, newNotes, amended.Notes)

	// The amendment leaves a correction entry behind.
	var entries []domain.Entry
	require.NoError(t, db.Where("subscriber_id = ?", subID).Order("id").Find(&entries).Error)
	require.Len(t, entries, 2)

	correction := entries[1]
	assert.Equal(t, domain.CategoryCorrection, correction.Category)
	assert.Equal(t, "wrong payment reference recorded", correction.Notes)
	assert.Equal(t, entry.ID.String(), correction.Metadata["corrected_entry_id"])
	assert.Equal(t, "dues cleared", correction.Metadata["prev_notes"])
}

func TestCorrectEntryRequiresReasonAndChanges(t *testing.T) {
	db, svc, node, _ := setupLedgerTest(t)

	entry, err := svc.RecordChange(context.Background(), db, domain.RecordChangeRequest{
		SubscriberID: node.Generate(),
		Category:     domain.CategoryBillingUpdate,
	})
	require.NoError(t, err)

	notes := "x"
	_, err = svc.CorrectEntry(context.Background(), entry.ID.String(), domain.CorrectEntryRequest{Notes: &notes})
	assert.ErrorIs(t, err, domain.ErrMissingReason)

	_, err = svc.CorrectEntry(context.Background(), entry.ID.String(), domain.CorrectEntryRequest{Reason: "because"})
	assert.ErrorIs(t, err, domain.ErrEmptyCorrection)
}

func TestListFiltersBySubscriberAndCategory(t *testing.T) {
	db, svc, node, fc := setupLedgerTest(t)

	first := node.Generate()
	second := node.Generate()
	for i, subID := range []snowflake.ID{first, first, second} {
		category := domain.CategoryBillingUpdate
		if i == 1 {
			category = domain.CategoryPaymentVerification
		}
		_, err := svc.RecordChange(context.Background(), db, domain.RecordChangeRequest{
			SubscriberID: subID,
			Category:     category,
		})
		require.NoError(t, err)
		fc.Advance(time.Second)
	}

	resp, err := svc.List(context.Background(), domain.ListEntriesRequest{SubscriberID: first.String()})
	require.NoError(t, err)
	assert.Len(t, resp.Entries, 2)

	resp, err = svc.List(context.Background(), domain.ListEntriesRequest{
		SubscriberID: first.String(),
		Category:     domain.CategoryPaymentVerification,
	})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, domain.CategoryPaymentVerification, resp.Entries[0].Category)
}
