// Package bqstore implements store.Store on a BigQuery table whose columns
// are the snake_case forms of the transaction fields.
package bqstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

// Config locates the transactions table.
type Config struct {
	ProjectID string
	Dataset   string
	Table     string
}

// TableRef returns the fully qualified, quoted table name.
func (c Config) TableRef() string {
	return fmt.Sprintf("`%s.%s.%s`", c.ProjectID, c.Dataset, c.Table)
}

// Store is the BigQuery implementation of store.Store. It holds a shared
// client to avoid creating a new connection for each operation.
type Store struct {
	client *bigquery.Client
	table  string
}

// New creates a store with its own BigQuery client.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.ProjectID == "" || cfg.Dataset == "" || cfg.Table == "" {
		return nil, errors.New("New: project, dataset and table are required")
	}
	client, err := bigquery.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("New: creating client: %w", err)
	}
	return &Store{client: client, table: cfg.TableRef()}, nil
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return store.BackendBigQuery
}

// Close closes the BigQuery client connection.
func (s *Store) Close(ctx context.Context) error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Find delegates to QueryPageWithClient.
func (s *Store) Find(ctx context.Context, spec query.Spec) ([]record.Record, error) {
	return QueryPageWithClient(ctx, s.client, s.table, spec)
}

// Count delegates to CountWithClient.
func (s *Store) Count(ctx context.Context, filter query.Filter) (int64, error) {
	return CountWithClient(ctx, s.client, s.table, filter)
}

// Get delegates to GetWithClient. Any non-blank id is accepted.
func (s *Store) Get(ctx context.Context, id string) (record.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidID
	}
	return GetWithClient(ctx, s.client, s.table, id)
}

// Distinct delegates to DistinctWithClient.
func (s *Store) Distinct(ctx context.Context, field string) ([]interface{}, error) {
	return DistinctWithClient(ctx, s.client, s.table, field)
}

// Sum delegates to AggregateWithClient.
func (s *Store) Sum(ctx context.Context, field string) (float64, error) {
	return AggregateWithClient(ctx, s.client, s.table, "SUM", field)
}

// Average delegates to AggregateWithClient.
func (s *Store) Average(ctx context.Context, field string) (float64, error) {
	return AggregateWithClient(ctx, s.client, s.table, "AVG", field)
}

// TopValues delegates to TopValuesWithClient.
func (s *Store) TopValues(ctx context.Context, field string, limit int) ([]store.ValueCount, error) {
	return TopValuesWithClient(ctx, s.client, s.table, field, limit)
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
