// Package service implements the billing ledger audit trail.
package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/actorcontext"
	"github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/pkg/db/option"
	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

type ledgerService struct {
	log   *zap.Logger
	db    *gorm.DB
	node  *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

type Params struct {
	fx.In

	Log   *zap.Logger
	DB    *gorm.DB
	Node  *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

func New(p Params) domain.Service {
	return &ledgerService{
		log:   p.Log.Named("billingledger.service"),
		db:    p.DB,
		node:  p.Node,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *ledgerService) RecordChange(ctx context.Context, tx *gorm.DB, req domain.RecordChangeRequest) (domain.Entry, error) {
	if !domain.ValidCategory(req.Category) {
		return domain.Entry{}, domain.ErrInvalidCategory
	}
	if tx == nil {
		tx = s.db
	}

	actor := actorcontext.ActorFromContext(ctx)
	actorType := actorcontext.ActorTypeFromContext(ctx)
	if actorType == "" {
		actorType = actorcontext.ActorTypeSystem
	}

	entry := domain.Entry{
		ID:           s.node.Generate(),
		SubscriberID: req.SubscriberID,
		Category:     req.Category,

		PrevPaymentStatus: req.Before.PaymentStatus,
		NewPaymentStatus:  req.After.PaymentStatus,
		PrevPendingAmount: req.Before.PendingAmount,
		NewPendingAmount:  req.After.PendingAmount,
		PrevPaymentDue:    req.Before.PaymentDue,
		NewPaymentDue:     req.After.PaymentDue,
		PrevPlanID:        req.Before.PlanID,
		NewPlanID:         req.After.PlanID,
		PrevPlanName:      req.Before.PlanName,
		NewPlanName:       req.After.PlanName,

		ChangedBy: actor,
		ActorType: actorType,
		Notes:     req.Notes,
		Metadata:  datatypes.JSONMap(req.Metadata),
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		s.log.Error("failed to append ledger entry",
			zap.String("subscriber_id", req.SubscriberID.String()),
			zap.Error(err),
		)
		return domain.Entry{}, err
	}
	return entry, nil
}

// CorrectEntry amends the mutable fields of an existing entry and appends a
// correction entry in the same transaction. The before/after snapshots of the
// original entry are immutable.
func (s *ledgerService) CorrectEntry(ctx context.Context, entryID string, req domain.CorrectEntryRequest) (domain.Entry, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return domain.Entry{}, domain.ErrMissingReason
	}
	if req.Notes == nil && req.Metadata == nil {
		return domain.Entry{}, domain.ErrEmptyCorrection
	}

	id, err := snowflake.ParseString(entryID)
	if err != nil {
		return domain.Entry{}, domain.ErrEntryNotFound
	}

	var amended domain.Entry
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		prevNotes := entry.Notes
		if req.Notes != nil {
			entry.Notes = *req.Notes
		}
		if req.Metadata != nil {
			entry.Metadata = datatypes.JSONMap(req.Metadata)
		}

		if err := s.repo.Update(ctx, tx, entry); err != nil {
			return err
		}

		correction := domain.Entry{
			ID:           s.node.Generate(),
			SubscriberID: entry.SubscriberID,
			Category:     domain.CategoryCorrection,
			ChangedBy:    actorcontext.ActorFromContext(ctx),
			ActorType:    actorTypeOrSystem(ctx),
			Notes:        req.Reason,
			Metadata: datatypes.JSONMap{
				"corrected_entry_id": entry.ID.String(),
				"prev_notes":         prevNotes,
				"new_notes":          entry.Notes,
			},
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, &correction); err != nil {
			return err
		}

		amended = *entry
		return nil
	})
	if err != nil {
		return domain.Entry{}, err
	}

	s.log.Info("ledger entry corrected",
		zap.String("entry_id", amended.ID.String()),
		zap.String("subscriber_id", amended.SubscriberID.String()),
	)
	return amended, nil
}

func (s *ledgerService) List(ctx context.Context, req domain.ListEntriesRequest) (domain.ListEntriesResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 || pageSize > 250 {
		pageSize = 20
	}

	opts := []option.QueryOption{
		option.WithSortBy("created_at", "desc", map[string]bool{"created_at": true}),
		option.ApplyPagination(pagination.Pagination{PageSize: pageSize}),
	}
	if req.SubscriberID != "" {
		subID, err := snowflake.ParseString(req.SubscriberID)
		if err != nil {
			return domain.ListEntriesResponse{}, domain.ErrEntryNotFound
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "subscriber_id", Operator: option.EQ, Value: subID}))
	}
	if req.Category != "" {
		if !domain.ValidCategory(req.Category) {
			return domain.ListEntriesResponse{}, domain.ErrInvalidCategory
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "category", Operator: option.EQ, Value: req.Category}))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListEntriesResponse{}, err
		}
		opts = append(opts, option.ApplyCursor(*cursor))
	}

	entries, err := s.repo.List(ctx, s.db, opts...)
	if err != nil {
		return domain.ListEntriesResponse{}, err
	}

	var resp domain.ListEntriesResponse
	resp.Entries, resp.PageInfo, err = pagination.BuildCursorPageInfo(entries, pageSize, func(entry domain.Entry) pagination.Cursor {
		return pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListEntriesResponse{}, err
	}
	return resp, nil
}

func actorTypeOrSystem(ctx context.Context) string {
	if t := actorcontext.ActorTypeFromContext(ctx); t != "" {
		return t
	}
	return actorcontext.ActorTypeSystem
}
