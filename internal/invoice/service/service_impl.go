// Package service implements invoice generation and settlement.
package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/dateutil"
	"github.com/fiberlink/backoffice/internal/invoice/domain"
	"github.com/fiberlink/backoffice/internal/invoice/format"
	"github.com/fiberlink/backoffice/internal/observability/metrics"
	"github.com/fiberlink/backoffice/pkg/db/option"
	"github.com/fiberlink/backoffice/pkg/db/pagination"
)

type invoiceService struct {
	log     *zap.Logger
	db      *gorm.DB
	node    *snowflake.Node
	clock   clock.Clock
	billing *config.BillingConfigHolder
	repo    domain.Repository
	metrics *metrics.Metrics
}

type Params struct {
	fx.In

	Log     *zap.Logger
	DB      *gorm.DB
	Node    *snowflake.Node
	Clock   clock.Clock
	Billing *config.BillingConfigHolder
	Repo    domain.Repository
	Metrics *metrics.Metrics `optional:"true"`
}

func New(p Params) domain.Service {
	return &invoiceService{
		log:     p.Log.Named("invoice.service"),
		db:      p.DB,
		node:    p.Node,
		clock:   p.Clock,
		billing: p.Billing,
		repo:    p.Repo,
		metrics: p.Metrics,
	}
}

// GSTPaise computes GST on a paise subtotal at the given basis-point rate,
// rounding half paise up. 18% of 999.00 is 179.82 exactly; 18% of 333.33
// rounds 59.9994 up to 60.00.
func GSTPaise(subtotal, rateBasisPoints int64) int64 {
	return (subtotal*rateBasisPoints + 5000) / 10000
}

// PeriodLabel renders the billing period covered by a renewal. The period
// starts the day after the previous expiry, so the caller passes that date;
// a period within one calendar month collapses to that month.
func PeriodLabel(start, end time.Time) string {
	if start.Year() == end.Year() && start.Month() == end.Month() {
		return start.Format("Jan 2006")
	}
	return start.Format("Jan 2006") + " - " + end.Format("Jan 2006")
}

func (s *invoiceService) Generate(ctx context.Context, tx *gorm.DB, req domain.GenerateRequest) (domain.Invoice, error) {
	cfg := s.billing.Get()
	now := s.clock.Now()
	day := dateutil.DateOnly(now)

	seq, err := s.repo.NextSeq(ctx, tx, day)
	if err != nil {
		return domain.Invoice{}, err
	}

	planCharge := req.MonthlyPrice * int64(req.MonthsRenewed)
	subtotal := planCharge + req.OldPendingPaise
	gst := GSTPaise(subtotal, int64(cfg.GSTRateBasisPoints))

	inv := domain.Invoice{
		ID:            s.node.Generate(),
		InvoiceNumber: format.FormatInvoiceNumber(cfg.InvoiceNumberTemplate, now, seq),
		SubscriberID:  req.SubscriberID,
		PlanID:        req.PlanID,
		PlanName:      req.PlanName,

		MonthsRenewed: req.MonthsRenewed,
		OldExpiryDate: req.OldExpiryDate,
		NewExpiryDate: req.NewExpiryDate,
		PeriodLabel:   PeriodLabel(req.OldExpiryDate.AddDate(0, 0, 1), req.NewExpiryDate),

		MonthlyPricePaise:  req.MonthlyPrice,
		PlanChargePaise:    planCharge,
		OldPendingPaise:    req.OldPendingPaise,
		SubtotalPaise:      subtotal,
		GSTRateBasisPoints: int64(cfg.GSTRateBasisPoints),
		GSTPaise:           gst,
		TotalPaise:         subtotal + gst,

		Status:        domain.StatusPaid,
		PaymentMethod: req.PaymentMethod,
		GeneratedBy:   req.GeneratedBy,
		CreatedAt:     now,
	}

	if err := s.repo.Insert(ctx, tx, &inv); err != nil {
		s.log.Error("failed to insert invoice",
			zap.String("subscriber_id", req.SubscriberID.String()),
			zap.Error(err),
		)
		return domain.Invoice{}, err
	}

	if s.metrics != nil {
		s.metrics.InvoicesGenerated.Inc()
	}
	s.log.Info("invoice generated",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("subscriber_id", req.SubscriberID.String()),
		zap.Int64("total_paise", inv.TotalPaise),
	)
	return inv, nil
}

func (s *invoiceService) AttachPDF(ctx context.Context, id snowflake.ID, path string) error {
	res := s.db.WithContext(ctx).
		Model(&domain.Invoice{}).
		Where("id = ?", id).
		Update("pdf_filepath", path)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvoiceNotFound
	}
	return nil
}

func (s *invoiceService) RecordPayment(ctx context.Context, id string, method string) (domain.Invoice, error) {
	if method != "CASH" && method != "UPI" {
		return domain.Invoice{}, domain.ErrInvalidPaymentMethod
	}

	invID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}

	var paid domain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.repo.FindByIDForUpdate(ctx, tx, invID)
		if err != nil {
			return err
		}
		if inv.PaymentMethod != "" {
			return domain.ErrPaymentAlreadyRecorded
		}

		inv.PaymentMethod = method
		if err := s.repo.Update(ctx, tx, inv); err != nil {
			return err
		}
		paid = *inv
		return nil
	})
	if err != nil {
		return domain.Invoice{}, err
	}
	return paid, nil
}

func (s *invoiceService) GetByID(ctx context.Context, id string) (domain.Invoice, error) {
	invID, err := snowflake.ParseString(id)
	if err != nil {
		return domain.Invoice{}, domain.ErrInvoiceNotFound
	}

	inv, err := s.repo.FindByID(ctx, s.db, invID)
	if err != nil {
		return domain.Invoice{}, err
	}
	return *inv, nil
}

func (s *invoiceService) List(ctx context.Context, req domain.ListInvoicesRequest) (domain.ListInvoicesResponse, error) {
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
			return domain.ListInvoicesResponse{}, domain.ErrInvoiceNotFound
		}
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "subscriber_id", Operator: option.EQ, Value: subID}))
	}
	if req.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: req.Status}))
	}
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListInvoicesResponse{}, err
		}
		opts = append(opts, option.ApplyCursor(*cursor))
	}

	invoices, err := s.repo.List(ctx, s.db, opts...)
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}

	var resp domain.ListInvoicesResponse
	resp.Invoices, resp.PageInfo, err = pagination.BuildCursorPageInfo(invoices, pageSize, func(inv domain.Invoice) pagination.Cursor {
		return pagination.Cursor{
			ID:        inv.ID.String(),
			CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return domain.ListInvoicesResponse{}, err
	}
	return resp, nil
}
