// Package query translates dashboard filter criteria into a backend-neutral
// query specification. Store backends render the specification into their
// native language (BSON filters, SQL, in-memory predicates).
package query

import (
	"math"
	"regexp"
	"time"
)

// PageSize is the fixed number of records per listing page.
const PageSize = 10

// MaxPage is the largest page number whose offset fits in an int.
const MaxPage = math.MaxInt / PageSize

// Clause is one predicate of a Filter.
type Clause interface {
	clause()
}

// Contains matches when the field contains Term as a literal, case-insensitive
// substring. With AsString set, non-string stored values (numbers, wrapped
// longs) are compared through their string form.
type Contains struct {
	Field    string
	Term     string
	AsString bool
}

// Token matches when Value appears in a delimited list field as a whole token,
// bounded by the start or end of the string, a comma, or whitespace.
type Token struct {
	Field string
	Value string
}

// In matches when the field equals one of Values.
type In struct {
	Field  string
	Values []string
}

// NumberRange is a closed interval on a numeric field. Nil bounds are open.
type NumberRange struct {
	Field string
	Min   *float64
	Max   *float64
}

// TimeRange is a closed interval on a timestamp field. Nil bounds are open.
type TimeRange struct {
	Field string
	From  *time.Time
	To    *time.Time
}

// Or matches when any of its clauses matches.
type Or struct {
	Clauses []Clause
}

func (Contains) clause()    {}
func (Token) clause()       {}
func (In) clause()          {}
func (NumberRange) clause() {}
func (TimeRange) clause()   {}
func (Or) clause()          {}

// Filter is the logical AND of its clauses. A filter without clauses matches
// every record.
type Filter struct {
	Clauses []Clause
}

// Empty reports whether the filter matches every record.
func (f Filter) Empty() bool {
	return len(f.Clauses) == 0
}

// Sort orders results by a single field.
type Sort struct {
	Field      string
	Descending bool
}

// Window selects one page of results.
type Window struct {
	Page   int
	Size   int
	Offset int
}

// Spec is a complete listing query.
type Spec struct {
	Filter Filter
	Sort   Sort
	Window Window
}

// TokenPattern returns the case-sensitive regular expression matching value as a
// delimited token. The value is quoted so it is always matched literally.
// Callers add their engine's case-insensitivity flag.
func TokenPattern(value string) string {
	return `(^|,|\s)` + regexp.QuoteMeta(value) + `(,|\s|$)`
}

// LiteralPattern quotes term so regular-expression engines match it literally.
func LiteralPattern(term string) string {
	return regexp.QuoteMeta(term)
}

// TotalPages returns ceil(total/size), never negative.
func TotalPages(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return int((total + int64(size) - 1) / int64(size))
}
