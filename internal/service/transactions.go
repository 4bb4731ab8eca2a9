// Package service implements the read-only transaction use cases: paged listing,
// single-record lookup, filter options and dashboard analytics.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/sales-dashboard/internal/apperr"
	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/store"
)

// TopCategoriesLimit is the number of categories reported by Analytics.
const TopCategoriesLimit = 5

// Pagination describes where a page sits in the full result.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Summary aggregates the records of one page.
type Summary struct {
	TotalUnits    float64 `json:"totalUnits"`
	TotalAmount   float64 `json:"totalAmount"`
	TotalDiscount float64 `json:"totalDiscount"`
}

// Page is one page of normalized records.
type Page struct {
	Records    []record.Record `json:"data"`
	Pagination Pagination      `json:"pagination"`
	Summary    Summary         `json:"summary"`
}

// Options lists the selectable values of each filter control.
type Options struct {
	Regions        []string `json:"regions"`
	Categories     []string `json:"categories"`
	Genders        []string `json:"genders"`
	PaymentMethods []string `json:"paymentMethods"`
	Tags           []string `json:"tags"`
}

// CategoryCount is one entry of the top categories ranking.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Analytics holds the dashboard headline figures.
type Analytics struct {
	TotalTransactions int64           `json:"totalTransactions"`
	TotalRevenue      float64         `json:"totalRevenue"`
	AvgOrderValue     float64         `json:"avgOrderValue"`
	TopCategories     []CategoryCount `json:"topCategories"`
}

// Transactions serves the transaction use cases over a store.
type Transactions struct {
	store store.Store
}

// NewTransactions creates the service.
func NewTransactions(s store.Store) *Transactions {
	return &Transactions{store: s}
}

// List returns the page of records matching c. The page fetch and the total
// count run concurrently; either failing fails the call.
func (t *Transactions) List(ctx context.Context, c query.Criteria) (*Page, error) {
	spec := query.Build(c)

	var (
		records []record.Record
		total   int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rs, err := t.store.Find(gctx, spec)
		if err != nil {
			return fmt.Errorf("List: fetching page: %w", err)
		}
		records = rs
		return nil
	})
	g.Go(func() error {
		n, err := t.store.Count(gctx, spec.Filter)
		if err != nil {
			return fmt.Errorf("List: counting: %w", err)
		}
		total = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Store("Failed to fetch transactions", err)
	}

	records = record.NormalizeAll(records)
	return &Page{
		Records: records,
		Pagination: Pagination{
			Page:       spec.Window.Page,
			PageSize:   spec.Window.Size,
			Total:      total,
			TotalPages: query.TotalPages(total, spec.Window.Size),
		},
		Summary: Summarize(records),
	}, nil
}

// Summarize totals units, final amounts and discounts over records.
// Missing or non-numeric values count as zero.
func Summarize(records []record.Record) Summary {
	units, amount, discount := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range records {
		qty := decimalField(r, record.FieldQuantity)
		final := decimalField(r, record.FieldFinalAmount)
		gross := decimalField(r, record.FieldTotalAmount)

		units = units.Add(qty)
		amount = amount.Add(final)
		discount = discount.Add(gross.Sub(final))
	}
	return Summary{
		TotalUnits:    units.InexactFloat64(),
		TotalAmount:   amount.InexactFloat64(),
		TotalDiscount: discount.InexactFloat64(),
	}
}

func decimalField(r record.Record, field string) decimal.Decimal {
	f, ok := r.Float(field)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Get returns the normalized record with the given id. found is false when
// no record has that id.
func (t *Transactions) Get(ctx context.Context, id string) (rec record.Record, found bool, err error) {
	r, err := t.store.Get(ctx, id)
	if errors.Is(err, store.ErrInvalidID) {
		return nil, false, apperr.Validation("Invalid transaction id: %q", id)
	}
	if err != nil {
		return nil, false, apperr.Store("Failed to fetch transaction", fmt.Errorf("Get %s: %w", id, err))
	}
	if r == nil {
		return nil, false, nil
	}
	return record.Normalize(r), true, nil
}

// Options collects the distinct values of every filter control, each sorted
// ascending. Tags are split out of their comma-separated lists.
func (t *Transactions) Options(ctx context.Context) (*Options, error) {
	opts := &Options{}
	lookups := []struct {
		field string
		dst   *[]string
		split bool
	}{
		{record.FieldCustomerRegion, &opts.Regions, false},
		{record.FieldProductCategory, &opts.Categories, false},
		{record.FieldGender, &opts.Genders, false},
		{record.FieldPaymentMethod, &opts.PaymentMethods, false},
		{record.FieldTags, &opts.Tags, true},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range lookups {
		l := l
		g.Go(func() error {
			values, err := t.store.Distinct(gctx, l.field)
			if err != nil {
				return fmt.Errorf("Options: distinct %q: %w", l.field, err)
			}
			*l.dst = distinctStrings(values, l.split)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Store("Failed to fetch filter options", err)
	}
	return opts, nil
}

// distinctStrings keeps non-blank string values, optionally splitting each on
// commas, and returns them de-duplicated and sorted. The result is never nil.
func distinctStrings(values []interface{}, split bool) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if !split {
			add(s)
			continue
		}
		for _, part := range strings.Split(s, ",") {
			add(part)
		}
	}
	sort.Strings(out)
	return out
}

// Analytics computes the dashboard figures over the whole store.
func (t *Transactions) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{TopCategories: []CategoryCount{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := t.store.Count(gctx, query.Filter{})
		if err != nil {
			return fmt.Errorf("Analytics: counting: %w", err)
		}
		a.TotalTransactions = n
		return nil
	})
	g.Go(func() error {
		sum, err := t.store.Sum(gctx, record.FieldFinalAmount)
		if err != nil {
			return fmt.Errorf("Analytics: revenue: %w", err)
		}
		a.TotalRevenue = sum
		return nil
	})
	g.Go(func() error {
		avg, err := t.store.Average(gctx, record.FieldFinalAmount)
		if err != nil {
			return fmt.Errorf("Analytics: average order value: %w", err)
		}
		a.AvgOrderValue = avg
		return nil
	})
	g.Go(func() error {
		top, err := t.store.TopValues(gctx, record.FieldProductCategory, TopCategoriesLimit)
		if err != nil {
			return fmt.Errorf("Analytics: top categories: %w", err)
		}
		for _, vc := range top {
			a.TopCategories = append(a.TopCategories, CategoryCount{Category: vc.Value, Count: vc.Count})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Store("Failed to compute analytics", err)
	}
	return a, nil
}
