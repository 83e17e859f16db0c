package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lineage/internal/domain"
	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	logpkg "github.com/kailas-cloud/lineage/internal/logger"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
	"github.com/kailas-cloud/lineage/internal/usecase/lineage"
)

const (
	defaultMaxBatchSize = 500
	defaultMaxLimit     = 1000
)

// errorMapping maps a domain sentinel to its HTTP status and error code.
type errorMapping struct {
	sentinel error
	status   int
	code     ErrorResponseCode
}

// Server implements Handlers.
type Server struct {
	documents     DocumentService
	batch         BatchService
	lineage       LineageService
	search        SearchService
	health        HealthChecker
	logger        *zap.Logger
	maxBatchSize  int
	maxLimit      int
	errorMappings []errorMapping
}

var _ Handlers = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	documents DocumentService,
	batch BatchService,
	lineage LineageService,
	search SearchService,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents:    documents,
		batch:        batch,
		lineage:      lineage,
		search:       search,
		health:       health,
		logger:       logger,
		maxBatchSize: defaultMaxBatchSize,
		maxLimit:     defaultMaxLimit,
	}
	s.errorMappings = []errorMapping{
		{domain.ErrDocumentNotFound, http.StatusNotFound, ErrorResponseCodeDocumentNotFound},
		{domain.ErrShortcodeNotFound, http.StatusNotFound, ErrorResponseCodeShortcodeNotFound},
		{domain.ErrInvalidDocument, http.StatusBadRequest, ErrorResponseCodeValidationFailed},
		{domain.ErrInvalidFilter, http.StatusBadRequest, ErrorResponseCodeInvalidFilter},
		{domain.ErrLineageTooDeep, http.StatusUnprocessableEntity, ErrorResponseCodeLineageTooDeep},
	}
	return s
}

// WithLimits configures the bulk and hydrate batch cap and the largest search page.
func (s *Server) WithLimits(maxBatchSize, maxLimit int) *Server {
	if maxBatchSize > 0 {
		s.maxBatchSize = maxBatchSize
	}
	if maxLimit > 0 {
		s.maxLimit = maxLimit
	}
	return s
}

// CreateDocument handles POST /docs.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var doc domdoc.Doc
	if !decodeBody(w, r, &doc) {
		return
	}
	if doc == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "document must be a JSON object")
		return
	}
	s.save(w, r, doc)
}

// PutDocument handles PUT /docs/{id}.
func (s *Server) PutDocument(w http.ResponseWriter, r *http.Request, id string) {
	var doc domdoc.Doc
	if !decodeBody(w, r, &doc) {
		return
	}
	if doc == nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "document must be a JSON object")
		return
	}
	if bodyID := doc.ID(); bodyID != "" && bodyID != id {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("body _id %q does not match path id %q", bodyID, id))
		return
	}
	doc[domdoc.FieldID] = id
	s.save(w, r, doc)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request, doc domdoc.Doc) {
	id, created, err := s.documents.Save(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/docs/"+id)
	}
	writeJSON(w, status, SaveResponse{ID: id, Created: created})
}

// BulkSaveDocuments handles POST /docs/bulk.
func (s *Server) BulkSaveDocuments(w http.ResponseWriter, r *http.Request) {
	var req DocsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Docs) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("docs count must be at most %d", s.maxBatchSize))
		return
	}
	writeJSON(w, http.StatusOK, s.bulkResponse(r, s.batch.Save(r.Context(), req.Docs)))
}

// BulkDeleteDocuments handles POST /docs/bulk/delete.
func (s *Server) BulkDeleteDocuments(w http.ResponseWriter, r *http.Request) {
	var req BulkDeleteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.IDs) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("ids count must be at most %d", s.maxBatchSize))
		return
	}
	writeJSON(w, http.StatusOK, s.bulkResponse(r, s.batch.Delete(r.Context(), req.IDs)))
}

func (s *Server) bulkResponse(r *http.Request, results []dombatch.Result) BulkResponse {
	resp := BulkResponse{Results: make([]BulkItemResult, len(results))}
	for i, res := range results {
		item := BulkItemResult{ID: res.ID(), Status: string(res.Status())}
		if res.OK() {
			resp.Succeeded++
		} else {
			resp.Failed++
			item.Error = s.itemError(r, res.ID(), res.Err())
		}
		resp.Results[i] = item
	}
	return resp
}

func (s *Server) itemError(r *http.Request, id string, err error) *ErrorResponse {
	_, code := s.classify(err)
	if code == ErrorResponseCodeInternalError {
		logpkg.FromContext(r.Context(), s.logger).Error("bulk item failed", zap.String("doc_id", id), zap.Error(err))
		return &ErrorResponse{Code: code, Message: "internal error"}
	}
	return &ErrorResponse{Code: code, Message: safeDomainMessage(err)}
}

// GetDocument handles GET /docs/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /docs/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetHydratedDocument handles GET /docs/{id}/hydrated.
func (s *Server) GetHydratedDocument(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.lineage.FetchHydratedDoc(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.Acyclic())
}

// HydrateDocuments handles POST /docs/hydrate.
func (s *Server) HydrateDocuments(w http.ResponseWriter, r *http.Request) {
	var req DocsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Docs) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("docs count must be at most %d", s.maxBatchSize))
		return
	}

	hydrated, err := s.lineage.HydrateDocs(r.Context(), req.Docs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out := make([]domdoc.Doc, len(hydrated))
	for i, doc := range hydrated {
		out[i] = doc.Acyclic()
	}
	writeJSON(w, http.StatusOK, DocsResponse{Docs: out})
}

// MinifyDocument handles POST /docs/minify.
func (s *Server) MinifyDocument(w http.ResponseWriter, r *http.Request) {
	var doc domdoc.Doc
	if !decodeBody(w, r, &doc) {
		return
	}
	if err := lineage.Minify(doc); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Search handles POST /search/{type}.
func (s *Server) Search(w http.ResponseWriter, r *http.Request, typ string, params SearchParams) {
	var req SearchRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}

	opts := search.Options{
		Skip:              derefInt(params.Skip),
		Limit:             derefInt(params.Limit),
		QueryResultsCache: req.QueryResultsCache,
	}
	if opts.Skip < 0 || opts.Limit < 0 || opts.Limit > s.maxLimit {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeValidationFailed,
			fmt.Sprintf("skip must be >= 0 and limit between 0 and %d", s.maxLimit))
		return
	}

	res, err := s.search.Search(r.Context(), typ, req.Filters, opts, req.Extensions)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrorResponseCodeBadRequest, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrDocumentNotFound,
		domain.ErrShortcodeNotFound,
		domain.ErrInvalidDocument,
		domain.ErrInvalidFilter,
		domain.ErrLineageTooDeep,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// classify returns the status and code for err; unknown errors are internal.
func (s *Server) classify(err error) (int, ErrorResponseCode) {
	for _, m := range s.errorMappings {
		if errors.Is(err, m.sentinel) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrorResponseCodeInternalError
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	status, code := s.classify(err)
	if code == ErrorResponseCodeInternalError {
		log.Error("internal error", zap.Error(err))
		writeError(w, status, code, "internal error")
		return
	}
	log.Warn("domain error", zap.Error(err))
	writeError(w, status, code, safeDomainMessage(err))
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
