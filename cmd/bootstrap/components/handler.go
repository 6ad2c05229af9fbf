package components

import (
	"fleet-match/internal/handler"
	"fleet-match/internal/handler/api"
	"fleet-match/internal/handler/middleware"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewRequestHandler,
		api.NewOfferHandler,
		api.NewMatchingHandler,
		api.NewBookingHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)
