// Package memstore serves transactions from an immutable in-memory snapshot,
// typically a MongoDB extended-JSON export loaded from disk or Cloud Storage.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

// Store is an in-memory implementation of store.Store.
// It is safe for concurrent use; the snapshot is never mutated after New.
type Store struct {
	mu      sync.RWMutex
	records []record.Record
}

// New creates a store over records. The slice is copied.
func New(records []record.Record) *Store {
	snapshot := make([]record.Record, len(records))
	copy(snapshot, records)
	return &Store{records: snapshot}
}

// Backend implements store.Store.
func (s *Store) Backend() string {
	return store.BackendMemory
}

// Close implements store.Store.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Len returns the number of records in the snapshot.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Find implements store.Store.
func (s *Store) Find(ctx context.Context, spec query.Spec) ([]record.Record, error) {
	match, err := compile(spec.Filter)
	if err != nil {
		return nil, fmt.Errorf("Find: compiling filter: %w", err)
	}

	s.mu.RLock()
	var matched []record.Record
	for _, r := range s.records {
		if match(r) {
			matched = append(matched, r)
		}
	}
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("Find: %w", err)
	}

	sortRecords(matched, spec.Sort)

	start := spec.Window.Offset
	if start < 0 {
		start = 0
	}
	if start >= len(matched) {
		return []record.Record{}, nil
	}
	end := len(matched)
	if spec.Window.Size > 0 && spec.Window.Size < end-start {
		end = start + spec.Window.Size
	}

	page := make([]record.Record, 0, end-start)
	for _, r := range matched[start:end] {
		page = append(page, r.Clone())
	}
	return page, nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, filter query.Filter) (int64, error) {
	match, err := compile(filter)
	if err != nil {
		return 0, fmt.Errorf("Count: compiling filter: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if match(r) {
			n++
		}
	}
	return n, nil
}

// Get implements store.Store. Any non-blank id is accepted; absent ids yield nil.
func (s *Store) Get(ctx context.Context, id string) (record.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, store.ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.records {
		if r.ID() == id {
			return r.Clone(), nil
		}
	}
	return nil, nil
}

// Distinct implements store.Store. Values keep the order of first appearance.
func (s *Store) Distinct(ctx context.Context, field string) ([]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []interface{}
	for _, r := range s.records {
		v, ok := r[field]
		if !ok || v == nil {
			continue
		}
		key := fmt.Sprintf("%T:%v", v, v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

// Sum implements store.Store.
func (s *Store) Sum(ctx context.Context, field string) (float64, error) {
	total, _ := s.sum(field)
	return total.InexactFloat64(), nil
}

// Average implements store.Store.
func (s *Store) Average(ctx context.Context, field string) (float64, error) {
	total, n := s.sum(field)
	if n == 0 {
		return 0, nil
	}
	return total.Div(decimal.NewFromInt(n)).InexactFloat64(), nil
}

func (s *Store) sum(field string) (decimal.Decimal, int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	var n int64
	for _, r := range s.records {
		if f, ok := r.Float(field); ok {
			total = total.Add(decimal.NewFromFloat(f))
			n++
		}
	}
	return total, n
}

// TopValues implements store.Store.
func (s *Store) TopValues(ctx context.Context, field string, limit int) ([]store.ValueCount, error) {
	s.mu.RLock()
	counts := make(map[string]int64)
	for _, r := range s.records {
		if v, ok := r.String(field); ok && v != "" {
			counts[v]++
		}
	}
	s.mu.RUnlock()

	out := make([]store.ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, store.ValueCount{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ensure Store implements store.Store.
var _ store.Store = (*Store)(nil)
