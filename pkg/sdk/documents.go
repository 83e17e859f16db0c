package lineage

import (
	"context"
	"fmt"
	"time"

	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	lineageuc "github.com/kailas-cloud/lineage/internal/usecase/lineage"
)

// DocumentService stores documents and keeps the views in sync.
type DocumentService struct {
	svc   documentUseCase
	batch batchUseCase
	obs   *observer
}

// BatchResult is the outcome of one item of a bulk write.
type BatchResult struct {
	ID      string
	Created bool
	Err     error
}

// BatchError aggregates the failed items of a bulk write.
type BatchError struct {
	Failed []BatchResult
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("lineage: %d of %d items failed: %v", len(e.Failed), e.Total, e.Failed[0].Err)
}

// Unwrap returns the per-item errors so errors.Is matches any of them.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}

// Save minifies and stores doc, generating an _id when it has none.
// Hydrated documents are accepted and left unchanged.
// Returns the stored id and whether the document is new.
func (s *DocumentService) Save(ctx context.Context, doc Doc) (id string, created bool, err error) {
	start := time.Now()
	defer func() { s.obs.observe("save", start, err, "doc_id", id) }()

	id, created, err = s.svc.Save(ctx, doc)
	if err != nil {
		return "", false, fmt.Errorf("save document: %w", err)
	}
	return id, created, nil
}

// Get returns a stored document as saved (minified).
func (s *DocumentService) Get(ctx context.Context, id string) (doc Doc, err error) {
	start := time.Now()
	defer func() { s.obs.observe("get", start, err, "doc_id", id) }()

	doc, err = s.svc.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document and its view rows.
func (s *DocumentService) Delete(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete", start, err, "doc_id", id) }()

	if err = s.svc.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// SaveBatch saves docs in order. Every item is attempted; when any fail
// the returned *BatchError lists them alongside the full results.
func (s *DocumentService) SaveBatch(ctx context.Context, docs []Doc) (results []BatchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("save_batch", start, err, "count", len(docs)) }()

	results, err = collectBatch(s.batch.Save(ctx, docs))
	s.obs.observeItems("save_batch", len(docs))
	return results, err
}

// DeleteBatch removes documents by id in order.
func (s *DocumentService) DeleteBatch(ctx context.Context, ids []string) (results []BatchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("delete_batch", start, err, "count", len(ids)) }()

	results, err = collectBatch(s.batch.Delete(ctx, ids))
	s.obs.observeItems("delete_batch", len(ids))
	return results, err
}

func collectBatch(in []dombatch.Result) ([]BatchResult, error) {
	out := make([]BatchResult, len(in))
	var failed []BatchResult
	for i, r := range in {
		out[i] = BatchResult{ID: r.ID(), Created: r.Status() == dombatch.StatusCreated, Err: r.Err()}
		if !r.OK() {
			failed = append(failed, out[i])
		}
	}
	if len(failed) > 0 {
		return out, &BatchError{Failed: failed, Total: len(in)}
	}
	return out, nil
}

// Minify strips doc in place to its stored shape: parent and contact
// become id stubs and a report's patient is removed.
func Minify(doc Doc) error {
	return lineageuc.Minify(doc) //nolint:wrapcheck // sentinel passthrough
}

// MinifyLineage returns the {_id, parent: {_id, ...}} stub chain of ref.
func MinifyLineage(ref Doc) (Doc, error) {
	return lineageuc.MinifyLineage(ref) //nolint:wrapcheck // sentinel passthrough
}
