package bootstrap

import (
	"fleet-match/cmd/bootstrap/components"

	"go.uber.org/fx"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	JWTModule,
	components.StoreModule,
	components.UseCaseModule,
	components.SweeperModule,
	components.HandlerModule,
)
