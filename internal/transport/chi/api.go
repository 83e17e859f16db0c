package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// ErrorResponseCode is the machine-readable error class of an error response.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest        ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized      ErrorResponseCode = "unauthorized"
	ErrorResponseCodeValidationFailed  ErrorResponseCode = "validation_failed"
	ErrorResponseCodeDocumentNotFound  ErrorResponseCode = "document_not_found"
	ErrorResponseCodeShortcodeNotFound ErrorResponseCode = "shortcode_not_found"
	ErrorResponseCodeInvalidFilter     ErrorResponseCode = "invalid_filter"
	ErrorResponseCodeLineageTooDeep    ErrorResponseCode = "lineage_too_deep"
	ErrorResponseCodeInternalError     ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// SaveResponse is returned by document writes.
type SaveResponse struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

// DocsRequest carries a batch of documents.
type DocsRequest struct {
	Docs []domdoc.Doc `json:"docs"`
}

// DocsResponse carries a batch of documents.
type DocsResponse struct {
	Docs []domdoc.Doc `json:"docs"`
}

// BulkDeleteRequest is the body of POST /docs/bulk/delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkItemResult is the outcome of one item of a bulk write.
type BulkItemResult struct {
	ID     string         `json:"id,omitempty"`
	Status string         `json:"status"`
	Error  *ErrorResponse `json:"error,omitempty"`
}

// BulkResponse lists per-item outcomes in request order.
type BulkResponse struct {
	Results   []BulkItemResult `json:"results"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
}

// SearchRequest is the body of POST /search/{type}.
type SearchRequest struct {
	Filters           search.Filters    `json:"filters"`
	Extensions        search.Extensions `json:"extensions"`
	QueryResultsCache []search.Row      `json:"query_results_cache,omitempty"`
}

// SearchParams are the query parameters of POST /search/{type}.
type SearchParams struct {
	Skip  *int `form:"skip" json:"skip,omitempty"`
	Limit *int `form:"limit" json:"limit,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Handlers is implemented by Server; Routes binds its operations to a router.
type Handlers interface {
	GetDocument(w http.ResponseWriter, r *http.Request, id string)
	PutDocument(w http.ResponseWriter, r *http.Request, id string)
	DeleteDocument(w http.ResponseWriter, r *http.Request, id string)
	CreateDocument(w http.ResponseWriter, r *http.Request)
	BulkSaveDocuments(w http.ResponseWriter, r *http.Request)
	BulkDeleteDocuments(w http.ResponseWriter, r *http.Request)
	GetHydratedDocument(w http.ResponseWriter, r *http.Request, id string)
	HydrateDocuments(w http.ResponseWriter, r *http.Request)
	MinifyDocument(w http.ResponseWriter, r *http.Request)
	Search(w http.ResponseWriter, r *http.Request, typ string, params SearchParams)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// ParamErrorHandler writes the response for a malformed path or query parameter.
type ParamErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Routes registers every operation of h on r.
func Routes(r chi.Router, h Handlers, onParamError ParamErrorHandler) {
	if onParamError == nil {
		onParamError = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}

	withID := func(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var id string
			err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
				runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
			if err != nil {
				onParamError(w, r, fmt.Errorf("invalid format for parameter id: %w", err))
				return
			}
			fn(w, r, id)
		}
	}

	r.Post("/docs", h.CreateDocument)
	r.Post("/docs/bulk", h.BulkSaveDocuments)
	r.Post("/docs/bulk/delete", h.BulkDeleteDocuments)
	r.Post("/docs/hydrate", h.HydrateDocuments)
	r.Post("/docs/minify", h.MinifyDocument)
	r.Get("/docs/{id}", withID(h.GetDocument))
	r.Put("/docs/{id}", withID(h.PutDocument))
	r.Delete("/docs/{id}", withID(h.DeleteDocument))
	r.Get("/docs/{id}/hydrated", withID(h.GetHydratedDocument))

	r.Post("/search/{type}", func(w http.ResponseWriter, r *http.Request) {
		var typ string
		err := runtime.BindStyledParameterWithOptions("simple", "type", chi.URLParam(r, "type"), &typ,
			runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
		if err != nil {
			onParamError(w, r, fmt.Errorf("invalid format for parameter type: %w", err))
			return
		}

		var params SearchParams
		if err := runtime.BindQueryParameter("form", true, false, "skip", r.URL.Query(), &params.Skip); err != nil {
			onParamError(w, r, fmt.Errorf("invalid format for parameter skip: %w", err))
			return
		}
		if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
			onParamError(w, r, fmt.Errorf("invalid format for parameter limit: %w", err))
			return
		}
		h.Search(w, r, typ, params)
	})

	r.Get("/health", h.HealthCheck)
	r.Get("/metrics", h.Metrics)
}
