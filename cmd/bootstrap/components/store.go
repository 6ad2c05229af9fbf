package components

import (
	"log/slog"

	"fleet-match/internal/gateway"
	"fleet-match/internal/infra/postgres"
	"fleet-match/internal/pkg/config"
	"fleet-match/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		fx.Annotate(
			NewPostgresStore,
			fx.As(new(shared.Store)),
		),
		fx.Annotate(
			gateway.NewLogNotifier,
			fx.As(new(gateway.NotificationGateway)),
		),
		fx.Annotate(
			gateway.NewLogLedger,
			fx.As(new(gateway.LedgerGateway)),
		),
	),
)

func NewPostgresStore(pool *pgxpool.Pool, cfg config.Config, logger *slog.Logger) *postgres.Store {
	return postgres.NewStore(pool, cfg.Sweeper, logger)
}
