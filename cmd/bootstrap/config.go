package bootstrap

import (
	"storefront/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(config.LoadConfig),
	ConfigSectionsModule,
)

// ConfigSectionsModule splits a provided config.Config into the sections
// individual components depend on.
var ConfigSectionsModule = fx.Provide(
	func(cfg config.Config) config.CartConfig { return cfg.Cart },
	func(cfg config.Config) config.OrderConfig { return cfg.Order },
	func(cfg config.Config) config.RedisConfig { return cfg.Redis },
	func(cfg config.Config) config.KafkaConfig { return cfg.Kafka },
)
