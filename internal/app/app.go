// Package app wires configuration to concrete store backends for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/dvloznov/sales-dashboard/internal/config"
	"github.com/dvloznov/sales-dashboard/internal/store"
	"github.com/dvloznov/sales-dashboard/internal/store/bqstore"
	"github.com/dvloznov/sales-dashboard/internal/store/memstore"
	"github.com/dvloznov/sales-dashboard/internal/store/mongostore"
)

// OpenStore opens the backend selected by cfg.Store.Backend.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Store.Backend {
	case store.BackendMongo:
		s, err := mongostore.Connect(ctx, mongostore.Config{
			URI:                    cfg.Store.Mongo.URI,
			Database:               cfg.Store.Mongo.Database,
			Collection:             cfg.Store.Mongo.Collection,
			ServerSelectionTimeout: cfg.Store.Mongo.ServerSelectionTimeout,
			SocketTimeout:          cfg.Store.Mongo.SocketTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil

	case store.BackendBigQuery:
		s, err := bqstore.New(ctx, bqstore.Config{
			ProjectID: cfg.Store.BigQuery.Project,
			Dataset:   cfg.Store.BigQuery.Dataset,
			Table:     cfg.Store.BigQuery.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil

	case store.BackendMemory:
		s, err := memstore.Load(ctx, cfg.Store.Memory.Snapshot)
		if err != nil {
			return nil, fmt.Errorf("OpenStore: %w", err)
		}
		return s, nil

	default:
		return nil, fmt.Errorf("OpenStore: unknown backend %q", cfg.Store.Backend)
	}
}
