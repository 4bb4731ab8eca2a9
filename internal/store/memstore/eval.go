package memstore

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
)

type predicate func(record.Record) bool

func matchAll(record.Record) bool { return true }

// compile turns a filter into a predicate. Patterns are compiled once per query.
func compile(f query.Filter) (predicate, error) {
	if f.Empty() {
		return matchAll, nil
	}
	preds := make([]predicate, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		p, err := compileClause(c)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return func(r record.Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}, nil
}

func compileClause(c query.Clause) (predicate, error) {
	switch c := c.(type) {
	case query.Contains:
		term := strings.ToLower(c.Term)
		return func(r record.Record) bool {
			s, ok := fieldText(r, c.Field, c.AsString)
			return ok && strings.Contains(strings.ToLower(s), term)
		}, nil

	case query.Token:
		re, err := regexp.Compile("(?i)" + query.TokenPattern(c.Value))
		if err != nil {
			return nil, fmt.Errorf("token pattern for %q: %w", c.Value, err)
		}
		return func(r record.Record) bool {
			s, ok := r.String(c.Field)
			return ok && re.MatchString(s)
		}, nil

	case query.In:
		set := make(map[string]struct{}, len(c.Values))
		for _, v := range c.Values {
			set[v] = struct{}{}
		}
		return func(r record.Record) bool {
			s, ok := r.String(c.Field)
			if !ok {
				return false
			}
			_, hit := set[s]
			return hit
		}, nil

	case query.NumberRange:
		return func(r record.Record) bool {
			f, ok := r.Float(c.Field)
			if !ok {
				return false
			}
			if c.Min != nil && f < *c.Min {
				return false
			}
			if c.Max != nil && f > *c.Max {
				return false
			}
			return true
		}, nil

	case query.TimeRange:
		return func(r record.Record) bool {
			t, ok := r.Time(c.Field)
			if !ok {
				return false
			}
			if c.From != nil && t.Before(*c.From) {
				return false
			}
			if c.To != nil && t.After(*c.To) {
				return false
			}
			return true
		}, nil

	case query.Or:
		preds := make([]predicate, 0, len(c.Clauses))
		for _, inner := range c.Clauses {
			p, err := compileClause(inner)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
		}
		return func(r record.Record) bool {
			for _, p := range preds {
				if p(r) {
					return true
				}
			}
			return false
		}, nil
	}

	return nil, fmt.Errorf("unsupported clause %T", c)
}

// fieldText returns the field as text. Without asString only string values count,
// mirroring a document store's pattern match on non-string fields.
func fieldText(r record.Record, field string, asString bool) (string, bool) {
	v, ok := r[field]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	if !asString {
		return "", false
	}
	return record.PhoneString(v)
}

// sortRecords orders records by s, then by id so pages are stable.
// Records missing the sort field order before all others ascending.
func sortRecords(rs []record.Record, s query.Sort) {
	sort.SliceStable(rs, func(i, j int) bool {
		c := compareField(rs[i], rs[j], s.Field)
		if s.Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return rs[i].ID() < rs[j].ID()
	})
}

func compareField(a, b record.Record, field string) int {
	if ta, oka := a.Time(field); oka {
		if tb, okb := b.Time(field); okb {
			return compareTime(ta, tb)
		}
	}
	if fa, oka := a.Float(field); oka {
		if fb, okb := b.Float(field); okb {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	sa, oka := a.String(field)
	sb, okb := b.String(field)
	switch {
	case !oka && !okb:
		return 0
	case !oka:
		return -1
	case !okb:
		return 1
	}
	return strings.Compare(sa, sb)
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}
