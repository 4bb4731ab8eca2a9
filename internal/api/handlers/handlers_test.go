package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/sales-dashboard/internal/api/middleware"
	"github.com/dvloznov/sales-dashboard/internal/apperr"
	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/service"
	"github.com/dvloznov/sales-dashboard/internal/store/memstore"
)

// fakeService records the criteria it receives and returns canned results.
type fakeService struct {
	criteria query.Criteria
	err      error
}

func (f *fakeService) List(ctx context.Context, c query.Criteria) (*service.Page, error) {
	f.criteria = c
	if f.err != nil {
		return nil, f.err
	}
	return &service.Page{Records: []record.Record{}, Pagination: service.Pagination{Page: c.Page, PageSize: 10}}, nil
}

func (f *fakeService) Get(ctx context.Context, id string) (record.Record, bool, error) {
	return nil, false, f.err
}

func (f *fakeService) Options(ctx context.Context) (*service.Options, error) {
	return nil, f.err
}

func (f *fakeService) Analytics(ctx context.Context) (*service.Analytics, error) {
	return nil, f.err
}

func newRouter(svc TransactionService) http.Handler {
	h := NewTransactionsHandler(svc, time.UTC, zerolog.Nop())
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func serve(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func sampleService() *service.Transactions {
	return service.NewTransactions(memstore.New([]record.Record{
		{
			record.FieldID:              "650000000000000000000001",
			record.FieldDate:            map[string]interface{}{"$date": "2023-03-14T09:26:53.589Z"},
			record.FieldCustomerName:    "Neha Sharma",
			record.FieldPhoneNumber:     map[string]interface{}{"$numberLong": "919876543210"},
			record.FieldCustomerRegion:  "North",
			record.FieldProductCategory: "Beauty",
			record.FieldTags:            "organic,skincare",
			record.FieldAge:             34.0,
			record.FieldQuantity:        3.0,
			record.FieldTotalAmount:     1500.0,
			record.FieldFinalAmount:     1350.0,
		},
		{
			record.FieldID:              "650000000000000000000002",
			record.FieldDate:            time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC),
			record.FieldCustomerName:    "Arjun Mehta",
			record.FieldPhoneNumber:     int64(919812345678),
			record.FieldCustomerRegion:  "South",
			record.FieldProductCategory: "Electronics",
			record.FieldTags:            "gadgets",
			record.FieldAge:             22.0,
			record.FieldQuantity:        1.0,
			record.FieldTotalAmount:     2999.0,
			record.FieldFinalAmount:     2999.0,
		},
	}))
}

func TestListTransactions(t *testing.T) {
	h := newRouter(sampleService())

	rec, body := serve(t, h, "/api/transactions")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].([]interface{})
	require.Len(t, data, 2)
	first := data[0].(map[string]interface{})
	assert.Equal(t, "Arjun Mehta", first[record.FieldCustomerName])
	assert.Equal(t, "2023-03-15T00:00:00.000Z", first[record.FieldDate])
	assert.Equal(t, "919812345678", first[record.FieldPhoneNumber])

	assert.Equal(t, map[string]interface{}{
		"page": 1.0, "pageSize": 10.0, "total": 2.0, "totalPages": 1.0,
	}, body["pagination"])
	assert.Equal(t, map[string]interface{}{
		"totalUnits": 4.0, "totalAmount": 4349.0, "totalDiscount": 150.0,
	}, body["summary"])
}

func TestListTransactions_Filters(t *testing.T) {
	h := newRouter(sampleService())

	_, body := serve(t, h, "/api/transactions?regions=North,South&ageMin=30&tags=null&sort=name")
	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Neha Sharma", data[0].(map[string]interface{})[record.FieldCustomerName])

	_, body = serve(t, h, "/api/transactions?search=98123")
	data = body["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Arjun Mehta", data[0].(map[string]interface{})[record.FieldCustomerName])
}

func TestListTransactions_EmptyPageIsValid(t *testing.T) {
	h := newRouter(sampleService())

	rec, body := serve(t, h, "/api/transactions?page=4")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{}, body["data"])
	assert.Equal(t, 4.0, body["pagination"].(map[string]interface{})["page"])
}

func TestListTransactions_HugePageIsEmptyNotFatal(t *testing.T) {
	h := newRouter(sampleService())

	for _, raw := range []string{"1000000000000000000", "9223372036854775807"} {
		rec, body := serve(t, h, "/api/transactions?page="+raw)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []interface{}{}, body["data"])
		assert.Equal(t, 2.0, body["pagination"].(map[string]interface{})["total"])
	}
}

func TestListTransactions_ParsesCriteria(t *testing.T) {
	svc := &fakeService{}
	h := newRouter(svc)

	rec, _ := serve(t, h, "/api/transactions?search=%20neha%20&gender=Female,&paymentMethods=UPI&page=0&dateStart=2023-03-14&sort=quantity")
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "neha", svc.criteria.Search)
	assert.Equal(t, []string{"Female"}, svc.criteria.Genders)
	assert.Equal(t, []string{"UPI"}, svc.criteria.PaymentMethods)
	assert.Equal(t, 1, svc.criteria.Page)
	assert.Equal(t, query.SortQuantity, svc.criteria.Sort)
	require.NotNil(t, svc.criteria.DateStart)
	assert.Equal(t, time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC), *svc.criteria.DateStart)
}

func TestListTransactions_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		message string
	}{
		{"age", "/api/transactions?ageMin=old", `Invalid ageMin parameter: "old" is not a number`},
		{"page", "/api/transactions?page=two", `Invalid page parameter: "two" is not an integer`},
		{"date", "/api/transactions?dateEnd=14/03/2023", `Invalid dateEnd parameter: "14/03/2023" is not a date (expected YYYY-MM-DD)`},
		{"nan", "/api/transactions?ageMin=NaN", `Invalid ageMin parameter: "NaN" is not a number`},
		{"infinity", "/api/transactions?ageMax=Inf", `Invalid ageMax parameter: "Inf" is not a number`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec, body := serve(t, newRouter(svc), tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestListTransactions_StoreFailureHidesCause(t *testing.T) {
	svc := &fakeService{err: apperr.Store("Failed to fetch transactions", errors.New("connection refused to 10.0.0.5"))}

	rec, body := serve(t, newRouter(svc), "/api/transactions")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Failed to fetch transactions"}, body)
}

func TestFailureLog_UsesRequestScopedLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	svc := &fakeService{err: apperr.Store("Failed to fetch transactions", errors.New("connection refused"))}
	h := NewTransactionsHandler(svc, time.UTC, zerolog.Nop())
	r := chi.NewRouter()
	r.Use(middleware.RequestID(zerolog.New(buf)))
	h.Register(r)

	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-9")
	r.ServeHTTP(httptest.NewRecorder(), req)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "req-9", entry["request_id"])
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/api/transactions", entry["path"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
	assert.Contains(t, entry["error"], "connection refused")
}

func TestFailureLog_FallsBackToHandlerLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	svc := &fakeService{err: apperr.Validation("Invalid transaction id: %q", "xyz")}
	h := NewTransactionsHandler(svc, time.UTC, zerolog.New(buf))
	r := chi.NewRouter()
	h.Register(r)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/transactions/xyz", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "/api/transactions/xyz", entry["path"])
	assert.Equal(t, float64(http.StatusBadRequest), entry["status"])
	assert.NotContains(t, entry, "request_id")
}

func TestGetTransaction(t *testing.T) {
	h := newRouter(sampleService())

	rec, body := serve(t, h, "/api/transactions/650000000000000000000001")
	assert.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "919876543210", data[record.FieldPhoneNumber])
	assert.Equal(t, "2023-03-14T09:26:53.589Z", data[record.FieldDate])

	rec, body = serve(t, h, "/api/transactions/650000000000000000000099")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Not found"}, body)
}

func TestGetTransaction_InvalidID(t *testing.T) {
	svc := &fakeService{err: apperr.Validation("Invalid transaction id: %q", "xyz")}

	rec, body := serve(t, newRouter(svc), "/api/transactions/xyz")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, `Invalid transaction id: "xyz"`, body["message"])
}

func TestListOptions(t *testing.T) {
	rec, body := serve(t, newRouter(sampleService()), "/api/transactions/options")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"regions":        []interface{}{"North", "South"},
		"categories":     []interface{}{"Beauty", "Electronics"},
		"genders":        []interface{}{},
		"paymentMethods": []interface{}{},
		"tags":           []interface{}{"gadgets", "organic", "skincare"},
	}, body["data"])
}

func TestGetAnalytics(t *testing.T) {
	rec, body := serve(t, newRouter(sampleService()), "/api/transactions/analytics/summary")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{
		"totalTransactions": 2.0,
		"totalRevenue":      4349.0,
		"avgOrderValue":     2174.5,
		"topCategories": []interface{}{
			map[string]interface{}{"category": "Beauty", "count": 1.0},
			map[string]interface{}{"category": "Electronics", "count": 1.0},
		},
	}, body["data"])
}

func TestGetAnalytics_EmptyStore(t *testing.T) {
	svc := service.NewTransactions(memstore.New(nil))

	_, body := serve(t, newRouter(svc), "/api/transactions/analytics/summary")
	assert.Equal(t, map[string]interface{}{
		"totalTransactions": 0.0,
		"totalRevenue":      0.0,
		"avgOrderValue":     0.0,
		"topCategories":     []interface{}{},
	}, body["data"])
}

func TestEndpoints_ForeignErrorsAreInternal(t *testing.T) {
	svc := &fakeService{err: errors.New("unexpected")}

	for _, target := range []string{"/api/transactions/options", "/api/transactions/analytics/summary"} {
		rec, body := serve(t, newRouter(svc), target)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["message"])
	}
}
