package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/sales-dashboard/internal/apperr"
)

// SortKey is one of the fixed listing orders.
type SortKey string

const (
	// SortDate orders newest first.
	SortDate SortKey = "date"
	// SortQuantity orders highest quantity first.
	SortQuantity SortKey = "quantity"
	// SortName orders customer names A-Z.
	SortName SortKey = "name"
)

const dateFormat = "2006-01-02"

// ParseSortKey returns the matching key, defaulting to SortDate.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortQuantity:
		return SortQuantity
	case SortName:
		return SortName
	default:
		return SortDate
	}
}

// Criteria is the request-scoped set of search, filter, sort and page parameters.
type Criteria struct {
	Search string

	Regions        []string
	Categories     []string
	Genders        []string
	PaymentMethods []string
	Tags           []string

	AgeMin *float64
	AgeMax *float64

	// DateStart and DateEnd are calendar days; only their date part is used.
	DateStart *time.Time
	DateEnd   *time.Time

	Sort SortKey
	Page int
}

// ParseCriteria reads listing parameters from a query string. Calendar dates are
// interpreted in loc. Unparseable numbers and dates are validation errors.
func ParseCriteria(values url.Values, loc *time.Location) (Criteria, error) {
	if loc == nil {
		loc = time.UTC
	}

	c := Criteria{
		Search:         strings.TrimSpace(param(values, "search")),
		Regions:        SplitList(param(values, "regions")),
		Categories:     SplitList(param(values, "categories")),
		Genders:        SplitList(param(values, "gender")),
		PaymentMethods: SplitList(param(values, "paymentMethods")),
		Tags:           SplitList(param(values, "tags")),
		Sort:           ParseSortKey(param(values, "sort")),
		Page:           1,
	}

	var err error
	if c.AgeMin, err = parseNumber(values, "ageMin"); err != nil {
		return Criteria{}, err
	}
	if c.AgeMax, err = parseNumber(values, "ageMax"); err != nil {
		return Criteria{}, err
	}
	if c.DateStart, err = parseDay(values, "dateStart", loc); err != nil {
		return Criteria{}, err
	}
	if c.DateEnd, err = parseDay(values, "dateEnd", loc); err != nil {
		return Criteria{}, err
	}

	if raw := param(values, "page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Criteria{}, apperr.Validation("Invalid page parameter: %q is not an integer", raw)
		}
		c.Page = page
	}
	switch {
	case c.Page < 1:
		c.Page = 1
	case c.Page > MaxPage:
		c.Page = MaxPage
	}

	return c, nil
}

// SplitList splits a comma-separated parameter, trimming entries and dropping blanks.
func SplitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// param returns the trimmed parameter, treating the "null" and "undefined"
// placeholders some clients send for cleared controls as absent.
func param(values url.Values, key string) string {
	v := strings.TrimSpace(values.Get(key))
	switch v {
	case "null", "undefined":
		return ""
	}
	return v
}

func parseNumber(values url.Values, key string) (*float64, error) {
	raw := param(values, key)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperr.Validation("Invalid %s parameter: %q is not a number", key, raw)
	}
	return &f, nil
}

func parseDay(values url.Values, key string, loc *time.Location) (*time.Time, error) {
	raw := param(values, key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation(dateFormat, raw, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Validation("Invalid %s parameter: %q is not a date (expected YYYY-MM-DD)", key, raw)
	}
	t = t.In(loc)
	return &t, nil
}
