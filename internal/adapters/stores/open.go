// Package stores opens the repository set selected by STORE_DRIVER.
package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/gotham-app/backend/internal/adapters/database"
	"github.com/gotham-app/backend/internal/adapters/memory"
	mongostore "github.com/gotham-app/backend/internal/adapters/mongo"
	"github.com/gotham-app/backend/internal/domain/repositories"
	mongoclient "github.com/gotham-app/backend/internal/infrastructure/clients/mongo"
	"github.com/gotham-app/backend/internal/infrastructure/clients/postgres"
	"github.com/gotham-app/backend/pkg/config"
)

// Opened is a connected store plus the hooks the process needs around it
type Opened struct {
	*repositories.Store
	Driver string
	// Ping is nil for the in-memory driver
	Ping  func(ctx context.Context) error
	Close func(ctx context.Context) error
}

// Open connects the configured driver and prepares its indexes or schema
func Open(ctx context.Context, cfg *config.Config, now func() time.Time) (*Opened, error) {
	if now == nil {
		now = time.Now
	}

	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := mongoclient.NewClient(ctx, &cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, client.Database()); err != nil {
			_ = client.Close(context.Background())
			return nil, fmt.Errorf("failed to ensure mongo indexes: %w", err)
		}
		return &Opened{
			Store:  mongostore.NewStoreWithClock(client.Database(), now),
			Driver: cfg.Store.Driver,
			Ping:   client.Ping,
			Close:  client.Close,
		}, nil

	case config.StoreDriverPostgres:
		client, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to ensure postgres schema: %w", err)
		}
		return &Opened{
			Store:  database.NewStore(client, now),
			Driver: cfg.Store.Driver,
			Ping:   client.Ping,
			Close:  func(context.Context) error { return client.Close() },
		}, nil

	case config.StoreDriverMemory:
		return &Opened{
			Store:  memory.NewStoreWithClock(now),
			Driver: cfg.Store.Driver,
			Close:  func(context.Context) error { return nil },
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}
