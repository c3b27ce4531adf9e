package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	ledgerdomain "github.com/fiberlink/backoffice/internal/billingledger/domain"
	"github.com/fiberlink/backoffice/internal/config"
	invoicedomain "github.com/fiberlink/backoffice/internal/invoice/domain"
	plandomain "github.com/fiberlink/backoffice/internal/plan/domain"
	"github.com/fiberlink/backoffice/internal/seed"
	subscriberdomain "github.com/fiberlink/backoffice/internal/subscriber/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// SQLite and MySQL are for local setups; let gorm derive the
			// schema from the models there.
			if err := conn.AutoMigrate(
				&plandomain.Plan{},
				&subscriberdomain.Subscriber{},
				&ledgerdomain.Entry{},
				&invoicedomain.Invoice{},
				&invoicedomain.Counter{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultPlans(conn)
	}),
)
