package batch

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/lineage/internal/domain"
	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// DefaultMaxBatchSize is the maximum number of items per bulk request.
const DefaultMaxBatchSize = 500

// Service handles bulk document writes with per-item error reporting.
type Service struct {
	saver        DocumentSaver
	deleter      DocumentDeleter
	maxBatchSize int
}

// New creates a batch service.
func New(saver DocumentSaver, deleter DocumentDeleter) *Service {
	return &Service{saver: saver, deleter: deleter, maxBatchSize: DefaultMaxBatchSize}
}

// WithMaxBatchSize configures the maximum batch size.
func (s *Service) WithMaxBatchSize(size int) *Service {
	if size > 0 {
		s.maxBatchSize = size
	}
	return s
}

// Save stores docs in order. A failed item does not stop the batch; a
// second document with an _id already seen in the batch is rejected.
func (s *Service) Save(ctx context.Context, docs []domdoc.Doc) []dombatch.Result {
	results := make([]dombatch.Result, len(docs))

	if len(docs) > s.maxBatchSize {
		for i, doc := range docs {
			results[i] = dombatch.Failed(doc.ID(),
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument))
		}
		return results
	}

	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		id := doc.ID()
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.Failed(id, fmt.Errorf("save: %w", err))
			continue
		}
		if doc == nil {
			results[i] = dombatch.Failed("", fmt.Errorf("document must be an object: %w", domain.ErrInvalidDocument))
			continue
		}
		if id != "" {
			if _, dup := seen[id]; dup {
				results[i] = dombatch.Failed(id, fmt.Errorf("duplicate _id %q in batch: %w", id, domain.ErrInvalidDocument))
				continue
			}
			seen[id] = struct{}{}
		}

		saved, created, err := s.saver.Save(ctx, doc)
		if err != nil {
			results[i] = dombatch.Failed(id, fmt.Errorf("save: %w", err))
			continue
		}
		results[i] = dombatch.Saved(saved, created)
	}

	return results
}

// Delete removes documents by id in order.
func (s *Service) Delete(ctx context.Context, ids []string) []dombatch.Result {
	results := make([]dombatch.Result, len(ids))

	if len(ids) > s.maxBatchSize {
		for i, id := range ids {
			results[i] = dombatch.Failed(id,
				fmt.Errorf("batch size exceeds %d: %w", s.maxBatchSize, domain.ErrInvalidDocument))
		}
		return results
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			results[i] = dombatch.Failed(id, fmt.Errorf("delete: %w", err))
			continue
		}
		if err := s.deleter.Delete(ctx, id); err != nil {
			results[i] = dombatch.Failed(id, fmt.Errorf("delete: %w", err))
			continue
		}
		results[i] = dombatch.Deleted(id)
	}

	return results
}
