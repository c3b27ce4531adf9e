package plan

import (
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/plan/repository"
	"github.com/fiberlink/backoffice/internal/plan/service"
)

var Module = fx.Module("plan",
	fx.Provide(
		repository.New,
		service.New,
	),
)
