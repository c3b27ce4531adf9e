package lifecycle

import (
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/lifecycle/service"
)

var Module = fx.Module("lifecycle",
	fx.Provide(service.New),
)
