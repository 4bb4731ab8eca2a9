package query

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/sales-dashboard/internal/record"
)

func ptr[T any](v T) *T { return &v }

func TestBuildFilter_Empty(t *testing.T) {
	f := BuildFilter(Criteria{})
	assert.True(t, f.Empty())

	f = BuildFilter(Criteria{Search: "   ", Regions: []string{" ", ""}, Tags: []string{""}})
	assert.True(t, f.Empty(), "blank selections must not contribute clauses")
}

func TestBuildFilter_Search(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   Clause
	}{
		{
			name:   "text matches name only",
			search: "  neha ",
			want:   Contains{Field: record.FieldCustomerName, Term: "neha"},
		},
		{
			name:   "digits match phone or name",
			search: "98765",
			want: Or{Clauses: []Clause{
				Contains{Field: record.FieldPhoneNumber, Term: "98765", AsString: true},
				Contains{Field: record.FieldCustomerName, Term: "98765"},
			}},
		},
		{
			name:   "mixed digits and symbols is text",
			search: "+9198",
			want:   Contains{Field: record.FieldCustomerName, Term: "+9198"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildFilter(Criteria{Search: tt.search})
			require.Len(t, f.Clauses, 1)
			assert.Equal(t, tt.want, f.Clauses[0])
		})
	}
}

func TestBuildFilter_MultiSelect(t *testing.T) {
	f := BuildFilter(Criteria{
		Regions:        []string{"North", " South "},
		Categories:     []string{"Beauty"},
		Genders:        []string{"Female", ""},
		PaymentMethods: []string{"UPI"},
	})

	assert.Equal(t, []Clause{
		In{Field: record.FieldCustomerRegion, Values: []string{"North", "South"}},
		In{Field: record.FieldProductCategory, Values: []string{"Beauty"}},
		In{Field: record.FieldGender, Values: []string{"Female"}},
		In{Field: record.FieldPaymentMethod, Values: []string{"UPI"}},
	}, f.Clauses)
}

func TestBuildFilter_Tags(t *testing.T) {
	f := BuildFilter(Criteria{Tags: []string{"organic", "skincare"}})

	require.Len(t, f.Clauses, 1)
	assert.Equal(t, Or{Clauses: []Clause{
		Token{Field: record.FieldTags, Value: "organic"},
		Token{Field: record.FieldTags, Value: "skincare"},
	}}, f.Clauses[0])
}

func TestBuildFilter_AgeRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max *float64
	}{
		{"both bounds", ptr(18.0), ptr(25.0)},
		{"lower only", ptr(60.0), nil},
		{"upper only", nil, ptr(30.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildFilter(Criteria{AgeMin: tt.min, AgeMax: tt.max})
			require.Len(t, f.Clauses, 1)
			assert.Equal(t, NumberRange{Field: record.FieldAge, Min: tt.min, Max: tt.max}, f.Clauses[0])
		})
	}
}

func TestBuildFilter_DateRangeCoversWholeDays(t *testing.T) {
	day := time.Date(2023, 3, 14, 15, 4, 5, 0, time.UTC)

	f := BuildFilter(Criteria{DateStart: &day, DateEnd: &day})
	require.Len(t, f.Clauses, 1)

	r, ok := f.Clauses[0].(TimeRange)
	require.True(t, ok)
	assert.Equal(t, record.FieldDate, r.Field)
	assert.Equal(t, time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), *r.From)
	assert.Equal(t, time.Date(2023, 3, 14, 23, 59, 59, 999_000_000, time.UTC), *r.To)
}

func TestBuildFilter_DateRangeOpenEnded(t *testing.T) {
	day := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)

	f := BuildFilter(Criteria{DateEnd: &day})
	require.Len(t, f.Clauses, 1)
	r := f.Clauses[0].(TimeRange)
	assert.Nil(t, r.From)
	require.NotNil(t, r.To)
}

func TestBuildFilter_DateRangeHonoursLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	day := time.Date(2023, 3, 14, 0, 0, 0, 0, ist)

	r := BuildFilter(Criteria{DateStart: &day}).Clauses[0].(TimeRange)
	assert.Equal(t, time.Date(2023, 3, 13, 18, 30, 0, 0, time.UTC), r.From.UTC())
}

func TestBuildFilter_CombinesAllClauses(t *testing.T) {
	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	f := BuildFilter(Criteria{
		Search:         "asha",
		Regions:        []string{"East"},
		Categories:     []string{"Electronics"},
		Genders:        []string{"Male"},
		PaymentMethods: []string{"Cash"},
		Tags:           []string{"gadgets"},
		AgeMin:         ptr(20.0),
		DateStart:      &day,
	})
	assert.Len(t, f.Clauses, 8)
}

func TestBuildSort(t *testing.T) {
	assert.Equal(t, Sort{Field: record.FieldDate, Descending: true}, BuildSort(SortDate))
	assert.Equal(t, Sort{Field: record.FieldQuantity, Descending: true}, BuildSort(SortQuantity))
	assert.Equal(t, Sort{Field: record.FieldCustomerName}, BuildSort(SortName))
	assert.Equal(t, Sort{Field: record.FieldDate, Descending: true}, BuildSort("price"))
}

func TestBuildWindow(t *testing.T) {
	tests := []struct {
		page       int
		wantPage   int
		wantOffset int
	}{
		{1, 1, 0},
		{2, 2, 10},
		{4, 4, 30},
		{0, 1, 0},
		{-3, 1, 0},
		{MaxPage, MaxPage, (MaxPage - 1) * PageSize},
		{MaxPage + 1, MaxPage, (MaxPage - 1) * PageSize},
		{math.MaxInt, MaxPage, (MaxPage - 1) * PageSize},
	}

	for _, tt := range tests {
		w := BuildWindow(tt.page)
		assert.Equal(t, tt.wantPage, w.Page)
		assert.Equal(t, tt.wantOffset, w.Offset)
		assert.Equal(t, PageSize, w.Size)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, PageSize))
	assert.Equal(t, 1, TotalPages(1, PageSize))
	assert.Equal(t, 1, TotalPages(10, PageSize))
	assert.Equal(t, 3, TotalPages(25, PageSize))
	assert.Equal(t, 0, TotalPages(-1, PageSize))
}

func TestIsDigits(t *testing.T) {
	assert.True(t, IsDigits("919876543210"))
	assert.False(t, IsDigits(""))
	assert.False(t, IsDigits("98 76"))
	assert.False(t, IsDigits("٣٤٥"))
}

func TestBuildWindow_OffsetNeverNegative(t *testing.T) {
	for _, page := range []int{math.MinInt, -1, 0, 1, MaxPage - 1, MaxPage, math.MaxInt} {
		w := BuildWindow(page)
		assert.GreaterOrEqual(t, w.Offset, 0, "page %d", page)
		assert.LessOrEqual(t, w.Offset, math.MaxInt-w.Size, "page %d", page)
	}
}
