package billingledger

import (
	"go.uber.org/fx"

	"github.com/fiberlink/backoffice/internal/billingledger/repository"
	"github.com/fiberlink/backoffice/internal/billingledger/service"
)

var Module = fx.Module("billingledger",
	fx.Provide(
		repository.New,
		service.New,
	),
)
