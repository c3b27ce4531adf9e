package invoice

import (
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/invoice/repository"
	"github.com/fiberlink/backoffice/internal/invoice/service"
)

var Module = fx.Module("invoice",
	fx.Provide(
		repository.New,
		service.New,
	),
)
