package components

import (
	"marketplace-checkout/internal/handler"
	"marketplace-checkout/internal/handler/api"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewCheckoutHandler,
		api.NewPaymentEventHandler,
	),
	fx.Invoke(handler.NewRouter),
)
