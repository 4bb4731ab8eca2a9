package query

import (
	"strings"
	"time"

	"github.com/dvloznov/sales-dashboard/internal/record"
)

var sortFields = map[SortKey]Sort{
	SortDate:     {Field: record.FieldDate, Descending: true},
	SortQuantity: {Field: record.FieldQuantity, Descending: true},
	SortName:     {Field: record.FieldCustomerName, Descending: false},
}

// Build translates criteria into a query specification.
func Build(c Criteria) Spec {
	return Spec{
		Filter: BuildFilter(c),
		Sort:   BuildSort(c.Sort),
		Window: BuildWindow(c.Page),
	}
}

// BuildFilter composes the AND of every active sub-predicate of c.
func BuildFilter(c Criteria) Filter {
	var clauses []Clause

	if term := strings.TrimSpace(c.Search); term != "" {
		clauses = append(clauses, searchClause(term))
	}

	for _, sel := range []struct {
		field  string
		values []string
	}{
		{record.FieldCustomerRegion, c.Regions},
		{record.FieldProductCategory, c.Categories},
		{record.FieldGender, c.Genders},
		{record.FieldPaymentMethod, c.PaymentMethods},
	} {
		if values := compact(sel.values); len(values) > 0 {
			clauses = append(clauses, In{Field: sel.field, Values: values})
		}
	}

	if tags := compact(c.Tags); len(tags) > 0 {
		tokens := make([]Clause, 0, len(tags))
		for _, tag := range tags {
			tokens = append(tokens, Token{Field: record.FieldTags, Value: tag})
		}
		clauses = append(clauses, Or{Clauses: tokens})
	}

	if c.AgeMin != nil || c.AgeMax != nil {
		clauses = append(clauses, NumberRange{Field: record.FieldAge, Min: c.AgeMin, Max: c.AgeMax})
	}

	if c.DateStart != nil || c.DateEnd != nil {
		r := TimeRange{Field: record.FieldDate}
		if c.DateStart != nil {
			from := StartOfDay(*c.DateStart)
			r.From = &from
		}
		if c.DateEnd != nil {
			to := EndOfDay(*c.DateEnd)
			r.To = &to
		}
		clauses = append(clauses, r)
	}

	return Filter{Clauses: clauses}
}

// BuildSort maps a sort key to its field and direction.
func BuildSort(key SortKey) Sort {
	if s, ok := sortFields[key]; ok {
		return s
	}
	return sortFields[SortDate]
}

// BuildWindow clamps page to [1, MaxPage] and derives the offset.
func BuildWindow(page int) Window {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	return Window{Page: page, Size: PageSize, Offset: (page - 1) * PageSize}
}

// StartOfDay returns 00:00:00.000 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// searchClause matches customer names, and phone numbers too when the term
// is all digits.
func searchClause(term string) Clause {
	name := Contains{Field: record.FieldCustomerName, Term: term}
	if !IsDigits(term) {
		return name
	}
	return Or{Clauses: []Clause{
		Contains{Field: record.FieldPhoneNumber, Term: term, AsString: true},
		name,
	}}
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compact trims values and drops blanks.
func compact(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
