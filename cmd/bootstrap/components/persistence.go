package components

import (
	"context"
	"log/slog"

	"marketplace-checkout/internal/infra/db"
	"marketplace-checkout/internal/infra/memstore"
	"marketplace-checkout/internal/infra/readstore"
	"marketplace-checkout/internal/infra/uow"
	"marketplace-checkout/internal/pkg/config"
	"marketplace-checkout/internal/pkg/errs"
	"marketplace-checkout/internal/usecase/queries"
	"marketplace-checkout/internal/usecase/shared"

	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		NewPersistence,
	),
)

type Persistence struct {
	fx.Out

	UnitOfWork shared.UnitOfWork
	ReadStore  queries.CheckoutReadStore
}

// NewPersistence picks the store backing both the write and read sides.
func NewPersistence(lc fx.Lifecycle, cfg config.Config) (Persistence, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		return newMemoryPersistence(cfg.Store)
	default:
		return newPostgresPersistence(lc, cfg.DB)
	}
}

func newMemoryPersistence(cfg config.StoreConfig) (Persistence, error) {
	store := memstore.New()
	if cfg.SeedFile != "" {
		if err := store.LoadSeed(cfg.SeedFile); err != nil {
			return Persistence{}, err
		}
	}
	slog.Info("using in-memory store", "seed_file", cfg.SeedFile)
	return Persistence{
		UnitOfWork: memstore.NewUoW(store),
		ReadStore:  memstore.NewReadStore(store),
	}, nil
}

func newPostgresPersistence(lc fx.Lifecycle, cfg config.DBConfig) (Persistence, error) {
	ctx := context.Background()
	pool, cleanup, err := db.Connect(ctx, cfg)
	if err != nil {
		return Persistence{}, err
	}

	if cfg.AutoMigrate {
		if err := db.Migrate(ctx, pool); err != nil {
			cleanup()
			return Persistence{}, errs.Wrap(err, "auto migration failed")
		}
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			cleanup()
			return nil
		},
	})

	return Persistence{
		UnitOfWork: uow.NewPostgresUoW(pool),
		ReadStore:  readstore.NewCheckoutReadStore(pool),
	}, nil
}
