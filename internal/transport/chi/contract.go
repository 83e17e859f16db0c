package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
)

// DocumentService stores and removes documents.
type DocumentService interface {
	Save(ctx context.Context, doc domdoc.Doc) (id string, created bool, err error)
	Get(ctx context.Context, id string) (domdoc.Doc, error)
	Delete(ctx context.Context, id string) error
}

// BatchService writes documents in bulk with per-item results.
type BatchService interface {
	Save(ctx context.Context, docs []domdoc.Doc) []dombatch.Result
	Delete(ctx context.Context, ids []string) []dombatch.Result
}

// LineageService hydrates documents.
type LineageService interface {
	FetchHydratedDoc(ctx context.Context, id string) (domdoc.Doc, error)
	HydrateDocs(ctx context.Context, docs []domdoc.Doc) ([]domdoc.Doc, error)
}

// SearchService runs searches.
type SearchService interface {
	Search(
		ctx context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
	) (search.Result, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
