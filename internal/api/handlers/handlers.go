package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/sales-dashboard/internal/api/middleware"
	"github.com/dvloznov/sales-dashboard/internal/apperr"
	"github.com/dvloznov/sales-dashboard/internal/logger"
	"github.com/dvloznov/sales-dashboard/internal/query"
	"github.com/dvloznov/sales-dashboard/internal/record"
	"github.com/dvloznov/sales-dashboard/internal/service"
)

// TransactionService is the use-case surface the handlers depend on.
type TransactionService interface {
	List(ctx context.Context, c query.Criteria) (*service.Page, error)
	Get(ctx context.Context, id string) (record.Record, bool, error)
	Options(ctx context.Context) (*service.Options, error)
	Analytics(ctx context.Context) (*service.Analytics, error)
}

// TransactionsHandler handles transaction-related endpoints.
type TransactionsHandler struct {
	svc TransactionService
	loc *time.Location
	log zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler. Calendar dates in
// filters are interpreted in loc; nil means UTC.
func NewTransactionsHandler(svc TransactionService, loc *time.Location, log zerolog.Logger) *TransactionsHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TransactionsHandler{
		svc: svc,
		loc: loc,
		log: log,
	}
}

// Register mounts the transaction routes on r. Static segments are matched
// before the {id} catch-all.
func (h *TransactionsHandler) Register(r chi.Router) {
	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Get("/options", h.ListOptions)
		r.Get("/analytics/summary", h.GetAnalytics)
		r.Get("/{id}", h.GetTransaction)
	})
}

type listResponse struct {
	Success    bool               `json:"success"`
	Data       []record.Record    `json:"data"`
	Pagination service.Pagination `json:"pagination"`
	Summary    service.Summary    `json:"summary"`
}

type dataResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

// ListTransactions handles GET /api/transactions
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	criteria, err := query.ParseCriteria(r.URL.Query(), h.loc)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.svc.List(r.Context(), criteria)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, listResponse{
		Success:    true,
		Data:       page.Records,
		Pagination: page.Pagination,
		Summary:    page.Summary,
	})
}

// GetTransaction handles GET /api/transactions/{id}
func (h *TransactionsHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, found, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		middleware.WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dataResponse{Success: true, Data: rec})
}

// ListOptions handles GET /api/transactions/options
func (h *TransactionsHandler) ListOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := h.svc.Options(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dataResponse{Success: true, Data: opts})
}

// GetAnalytics handles GET /api/transactions/analytics/summary
func (h *TransactionsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Analytics(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, dataResponse{Success: true, Data: a})
}

// fail maps err to a status and public message. Server-side causes are logged,
// never returned to the client.
func (h *TransactionsHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	log := logger.WithFields(logger.FromContextOr(r.Context(), h.log), map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"status": status,
	})
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	} else {
		log.Debug().Err(err).Msg("Rejected request")
	}
	middleware.WriteError(w, status, apperr.PublicMessage(err))
}
