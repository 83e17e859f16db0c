package batch

import (
	"context"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// DocumentSaver minifies, stores and indexes one document.
type DocumentSaver interface {
	Save(ctx context.Context, doc domdoc.Doc) (id string, created bool, err error)
}

// DocumentDeleter removes one document and its view rows.
type DocumentDeleter interface {
	Delete(ctx context.Context, id string) error
}
