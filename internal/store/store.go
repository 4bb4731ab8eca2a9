// Package store defines the read-only contract every transaction backend
// implements. The record store itself is owned elsewhere; this service only
// queries it.
package store

import (
	"context"
	"errors"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
)

// Backend names accepted in configuration.
const (
	BackendMongo    = "mongo"
	BackendBigQuery = "bigquery"
	BackendMemory   = "memory"
)

// ErrInvalidID is returned by Get when the identifier is malformed for the backend.
var ErrInvalidID = errors.New("invalid record id")

// ValueCount is one group of a frequency aggregation.
type ValueCount struct {
	Value string
	Count int64
}

// Store provides read access to the transaction collection.
type Store interface {
	// Find returns one page of records matching spec.Filter, ordered by spec.Sort.
	Find(ctx context.Context, spec query.Spec) ([]record.Record, error)

	// Count returns the number of records matching filter, ignoring pagination.
	Count(ctx context.Context, filter query.Filter) (int64, error)

	// Get returns the record with the given id, or nil when there is none.
	Get(ctx context.Context, id string) (record.Record, error)

	// Distinct returns the distinct raw values stored in field across all records.
	Distinct(ctx context.Context, field string) ([]interface{}, error)

	// Sum adds up the numeric values of field across all records.
	Sum(ctx context.Context, field string) (float64, error)

	// Average returns the mean of the numeric values of field, 0 when there are none.
	Average(ctx context.Context, field string) (float64, error)

	// TopValues returns the most frequent non-empty values of field, most frequent
	// first, ties ordered by value.
	TopValues(ctx context.Context, field string, limit int) ([]ValueCount, error)

	// Backend names the implementation, e.g. "mongo".
	Backend() string

	// Close releases the backend's connections.
	Close(ctx context.Context) error
}
