// Package pdf renders committed invoices to disk with maroto.
package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/config"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	lifecycledomain "github.com/fiberlink/backoffice/internal/lifecycle/domain"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

type Renderer struct {
	log *zap.Logger
	dir string
}

func New(cfg config.Config, log *zap.Logger) lifecycledomain.InvoiceRenderer {
	return &Renderer{
		log: log.Named("pdf.renderer"),
		dir: cfg.InvoiceDir,
	}
}

// RenderInvoice writes the invoice PDF under the invoice directory and
// returns the file path.
func (r *Renderer) RenderInvoice(_ context.Context, inv invoicedomain.Invoice, sub subscriberdomain.Subscriber) (string, error) {
	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Tax Invoice", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+inv.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+inv.CreatedAt.Format("02 Jan 2006"), props.Text{Top: 4}),
			text.New("Billing period: "+inv.PeriodLabel, props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("FiberLink Broadband", props.Text{Style: fontstyle.Bold}),
			text.New("GSTIN invoice, all amounts in INR", props.Text{Top: 5, Size: 8}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(sub.Name, props.Text{Top: 5}),
			text.New(sub.Address, props.Text{Top: 9}),
			text.New("Customer code: "+sub.CustomerCode, props.Text{Top: 17}),
		),
	)

	m.AddRow(10,
		text.NewCol(8, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	desc := fmt.Sprintf("%s, %d month(s), %s", inv.PlanName, inv.MonthsRenewed, inv.PeriodLabel)
	m.AddRow(12,
		text.NewCol(8, desc, props.Text{Size: 9}),
		text.NewCol(4, rupees(inv.PlanChargePaise), props.Text{Size: 9, Align: align.Right}),
	)
	if inv.OldPendingPaise > 0 {
		m.AddRow(12,
			text.NewCol(8, "Previous pending balance", props.Text{Size: 9}),
			text.NewCol(4, rupees(inv.OldPendingPaise), props.Text{Size: 9, Align: align.Right}),
		)
	}

	gstLabel := fmt.Sprintf("GST @ %.2f%%", float64(inv.GSTRateBasisPoints)/100)
	m.AddRow(10,
		col.New(6),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(4, rupees(inv.SubtotalPaise), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(2, gstLabel, props.Text{Size: 9}),
		text.NewCol(4, rupees(inv.GSTPaise), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(6),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(4, rupees(inv.TotalPaise), props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(r.dir, inv.InvoiceNumber+".pdf")
	if err := os.WriteFile(path, doc.GetBytes(), 0o644); err != nil {
		return "", err
	}

	r.log.Info("invoice pdf rendered",
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("path", path),
	)
	return path, nil
}

func rupees(paise int64) string {
	return fmt.Sprintf("₹%d.%02d", paise/100, paise%100)
}

var Module = fx.Module("pdf",
	fx.Provide(New),
)
