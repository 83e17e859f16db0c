package document

import (
	"context"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// Repository defines the storage contract for documents.
type Repository interface {
	Put(ctx context.Context, doc domdoc.Doc) (created bool, err error)
	Get(ctx context.Context, id string) (domdoc.Doc, error)
	Delete(ctx context.Context, id string) error
}

// Indexer maintains the view rows emitted by a document.
type Indexer interface {
	Index(ctx context.Context, doc domdoc.Doc) error
	Unindex(ctx context.Context, id string) error
}
