package access

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fuelflow/fuelflow/pkg/config"
)

// newStore wraps the database store in the redis cache when redis is configured.
func newStore(db *gorm.DB, rdb *redis.Client, cfg *config.Config, log *zap.SugaredLogger) Store {
	base := NewGormStore(db)
	if rdb == nil {
		return base
	}
	return NewCachedStore(base, rdb, cfg.Access.CacheTTL, log)
}

var Module = fx.Options(
	fx.Provide(newStore),
	fx.Provide(func(s Store) Membership { return s }),
	fx.Provide(NewGate),
	fx.Provide(NewService),
)
