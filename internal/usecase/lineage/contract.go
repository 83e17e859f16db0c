package lineage

import (
	"context"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// DocumentReader reads documents by id.
type DocumentReader interface {
	Get(ctx context.Context, id string) (domdoc.Doc, error)
	// BulkGet returns one entry per id, nil for missing documents.
	BulkGet(ctx context.Context, ids []string) ([]domdoc.Doc, error)
}

// ViewQuerier reads view rows.
type ViewQuerier interface {
	Query(ctx context.Context, viewName string, p search.Params) ([]search.Row, error)
}

// ShortcodeResolver maps a patient shortcode to a contact id.
type ShortcodeResolver interface {
	Resolve(ctx context.Context, code string) (string, error)
}
