package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/clock"
	"github.com/fiberlink/backoffice/internal/config"
	"github.com/fiberlink/backoffice/internal/logger"
	"github.com/fiberlink/backoffice/internal/migration"
	"github.com/fiberlink/backoffice/internal/server"
	"github.com/fiberlink/backoffice/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		log.Fatalf("failed to create snowflake node: %v", err)
	}
	return node
}
