package store

import (
	"context"
	"time"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
)

// Observer receives the outcome of every store operation.
type Observer interface {
	ObserveStoreOperation(backend, operation string, d time.Duration, err error)
}

// Instrumented wraps a Store and reports each call to an Observer.
type Instrumented struct {
	next     Store
	observer Observer
}

// NewInstrumented returns s reporting to o. A nil observer returns s unchanged.
func NewInstrumented(s Store, o Observer) Store {
	if o == nil {
		return s
	}
	return &Instrumented{next: s, observer: o}
}

func (i *Instrumented) observe(op string, start time.Time, err error) {
	i.observer.ObserveStoreOperation(i.next.Backend(), op, time.Since(start), err)
}

// Find implements Store.
func (i *Instrumented) Find(ctx context.Context, spec query.Spec) (rs []record.Record, err error) {
	defer func(start time.Time) { i.observe("find", start, err) }(time.Now())
	return i.next.Find(ctx, spec)
}

// Count implements Store.
func (i *Instrumented) Count(ctx context.Context, filter query.Filter) (n int64, err error) {
	defer func(start time.Time) { i.observe("count", start, err) }(time.Now())
	return i.next.Count(ctx, filter)
}

// Get implements Store.
func (i *Instrumented) Get(ctx context.Context, id string) (r record.Record, err error) {
	defer func(start time.Time) { i.observe("get", start, err) }(time.Now())
	return i.next.Get(ctx, id)
}

// Distinct implements Store.
func (i *Instrumented) Distinct(ctx context.Context, field string) (vs []interface{}, err error) {
	defer func(start time.Time) { i.observe("distinct", start, err) }(time.Now())
	return i.next.Distinct(ctx, field)
}

// Sum implements Store.
func (i *Instrumented) Sum(ctx context.Context, field string) (v float64, err error) {
	defer func(start time.Time) { i.observe("sum", start, err) }(time.Now())
	return i.next.Sum(ctx, field)
}

// Average implements Store.
func (i *Instrumented) Average(ctx context.Context, field string) (v float64, err error) {
	defer func(start time.Time) { i.observe("average", start, err) }(time.Now())
	return i.next.Average(ctx, field)
}

// TopValues implements Store.
func (i *Instrumented) TopValues(ctx context.Context, field string, limit int) (vs []ValueCount, err error) {
	defer func(start time.Time) { i.observe("top_values", start, err) }(time.Now())
	return i.next.TopValues(ctx, field, limit)
}

// Backend implements Store.
func (i *Instrumented) Backend() string {
	return i.next.Backend()
}

// Close implements Store.
func (i *Instrumented) Close(ctx context.Context) error {
	return i.next.Close(ctx)
}
