package worker

import (
	"log/slog"

	"storefront/internal/pkg/config"
	"storefront/internal/usecase/commands"
)

// CartSweeper expires abandoned carts and returns their reservations.
type CartSweeper struct {
	*Periodic
}

func NewCartSweeper(cmds commands.CartExpiryCommands, cfg config.CartConfig, logger *slog.Logger) *CartSweeper {
	return &CartSweeper{Periodic: NewPeriodic("cart-sweeper", cfg.SweepInterval, cmds.SweepExpired, logger)}
}

// OutboxRelay forwards unpublished order events to the event publisher.
type OutboxRelay struct {
	*Periodic
}

func NewOutboxRelay(cmds commands.EventRelayCommands, cfg config.KafkaConfig, logger *slog.Logger) *OutboxRelay {
	return &OutboxRelay{Periodic: NewPeriodic("outbox-relay", cfg.RelayInterval, cmds.RelayPending, logger)}
}
