// The sweeper app runs only the daily expiry sweep and reminder jobs. It is
// deployed alongside the API server when the two need separate scaling or
// restart schedules.
package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/logger"
	"github.com/fiberlink/backoffice/internal/migration"
	"github.com/fiberlink/backoffice/internal/notification"
	"github.com/fiberlink/backoffice/internal/observability/metrics"
	"github.com/fiberlink/backoffice/internal/plan"
	"github.com/fiberlink/backoffice/internal/providers/email"
	"github.com/fiberlink/backoffice/internal/providers/whatsapp"
	"github.com/fiberlink/backoffice/internal/sweeper"
	"github.com/fiberlink/backoffice/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		plan.Module,
		notification.Module,
		email.Module,
		whatsapp.Module,
		sweeper.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		log.Fatalf("failed to create snowflake node: %v", err)
	}
	return node
}
