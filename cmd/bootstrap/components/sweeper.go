package components

import (
	"context"
	"log/slog"

	"fleet-match/internal/gateway"
	"fleet-match/internal/pkg/clock"
	"fleet-match/internal/pkg/config"
	"fleet-match/internal/usecase/shared"
	"fleet-match/internal/usecase/sweeper"

	"go.uber.org/fx"
)

var SweeperModule = fx.Module("sweeper",
	fx.Provide(
		NewSweeper,
	),
	fx.Invoke(runSweeper),
)

func NewSweeper(
	store shared.Store,
	notifier gateway.NotificationGateway,
	clk clock.Clock,
	logger *slog.Logger,
	cfg config.Config,
) *sweeper.Sweeper {
	return sweeper.New(store, notifier, clk, logger, cfg.Sweeper)
}

func runSweeper(lc fx.Lifecycle, s *sweeper.Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go s.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
