package subscriber

import (
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/subscriber/repository"
	"github.com/fiberlink/backoffice/internal/subscriber/service"
)

var Module = fx.Module("subscriber",
	fx.Provide(
		repository.New,
		service.New,
	),
)
