// Package server exposes the billing engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiberlink/backoffice/internal/billingledger"
	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/invoice"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	"github.com/fiberlink/backoffice/internal/lifecycle"
	lifecycledomain "github.com/fiberlink/backoffice/internal/lifecycle/domain"
	"github.com/fiberlink/backoffice/internal/notification"
	"github.com/fiberlink/backoffice/internal/observability/metrics"
	"github.com/fiberlink/backoffice/internal/plan"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	"github.com/fiberlink/backoffice/internal/providers/email"
	"github.com/fiberlink/backoffice/internal/providers/pdf"
	"github.com/fiberlink/backoffice/internal/providers/whatsapp"
	"github.com/fiberlink/backoffice/internal/subscriber"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
	"github.com/fiberlink/backoffice/internal/sweeper"
)

var Module = fx.Module("http.server",
	metrics.Module,
	fx.Provide(registerGin),
	plan.Module,
	subscriber.Module,
	billingledger.Module,
	invoice.Module,
	lifecycle.Module,
	notification.Module,
	email.Module,
	whatsapp.Module,
	pdf.Module,
	sweeper.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger, m *metrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware(m))
	r.Use(ActorMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	return r
}

func registerGin(log *zap.Logger, m *metrics.Metrics, reg *prometheus.Registry) *gin.Engine {
	return NewEngine(log, m, reg)
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	planSvc      plandomain.Service
	subSvc       subscriberdomain.Service
	ledgerSvc    ledgerdomain.Service
	invoiceSvc   invoicedomain.Service
	lifecycleSvc lifecycledomain.Service
	sweeperSvc   *sweeper.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	PlanSvc      plandomain.Service
	SubSvc       subscriberdomain.Service
	LedgerSvc    ledgerdomain.Service
	InvoiceSvc   invoicedomain.Service
	LifecycleSvc lifecycledomain.Service
	SweeperSvc   *sweeper.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		planSvc:      p.PlanSvc,
		subSvc:       p.SubSvc,
		ledgerSvc:    p.LedgerSvc,
		invoiceSvc:   p.InvoiceSvc,
		lifecycleSvc: p.LifecycleSvc,
		sweeperSvc:   p.SweeperSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	plans := api.Group("/plans")
	plans.POST("", s.CreatePlan)
	plans.GET("", s.ListPlans)
	plans.GET("/:id", s.GetPlanByID)
	plans.PUT("/:id", s.UpdatePlan)
	plans.DELETE("/:id", s.DeletePlan)

	subs := api.Group("/subscribers")
	subs.POST("", s.CreateSubscriber)
	subs.GET("", s.ListSubscribers)
	subs.GET("/:id", s.GetSubscriberByID)
	subs.PUT("/:id", s.UpdateSubscriber)
	subs.PUT("/:id/billing", s.UpdateBilling)
	subs.POST("/:id/renew", s.RenewPlan)
	subs.POST("/:id/installation/schedule", s.ScheduleInstallation)
	subs.POST("/:id/installation/complete", s.CompleteInstallation)
	subs.POST("/:id/suspend", s.SuspendSubscriber)
	subs.POST("/:id/expire", s.ExpireSubscriber)
	subs.GET("/:id/ledger", s.ListLedgerEntries)
	subs.GET("/:id/invoices", s.ListSubscriberInvoices)

	ledger := api.Group("/ledger")
	ledger.PUT("/:id", s.CorrectLedgerEntry)

	invoices := api.Group("/invoices")
	invoices.GET("", s.ListInvoices)
	invoices.GET("/:id", s.GetInvoiceByID)
	invoices.POST("/:id/pay", s.PayInvoice)

	jobs := api.Group("/jobs")
	jobs.POST("/expiry-sweep", s.TriggerExpirySweep)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
