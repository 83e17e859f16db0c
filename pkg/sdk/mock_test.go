package lineage

import (
	"context"

	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
)

// --- documentUseCase mock ---

type mockDocumentUC struct {
	saveFn   func(ctx context.Context, doc domdoc.Doc) (string, bool, error)
	getFn    func(ctx context.Context, id string) (domdoc.Doc, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockDocumentUC) Save(ctx context.Context, doc domdoc.Doc) (string, bool, error) {
	return m.saveFn(ctx, doc)
}

func (m *mockDocumentUC) Get(ctx context.Context, id string) (domdoc.Doc, error) {
	return m.getFn(ctx, id)
}

func (m *mockDocumentUC) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// --- batchUseCase mock ---

type mockBatchUC struct {
	saveFn   func(ctx context.Context, docs []domdoc.Doc) []dombatch.Result
	deleteFn func(ctx context.Context, ids []string) []dombatch.Result
}

func (m *mockBatchUC) Save(ctx context.Context, docs []domdoc.Doc) []dombatch.Result {
	return m.saveFn(ctx, docs)
}

func (m *mockBatchUC) Delete(ctx context.Context, ids []string) []dombatch.Result {
	return m.deleteFn(ctx, ids)
}

// --- lineageUseCase mock ---

type mockLineageUC struct {
	chainFn   func(ctx context.Context, id string) ([]domdoc.Doc, error)
	fetchFn   func(ctx context.Context, id string) (domdoc.Doc, error)
	hydrateFn func(ctx context.Context, docs []domdoc.Doc) ([]domdoc.Doc, error)
}

func (m *mockLineageUC) FetchChain(ctx context.Context, id string) ([]domdoc.Doc, error) {
	return m.chainFn(ctx, id)
}

func (m *mockLineageUC) FetchHydratedDoc(ctx context.Context, id string) (domdoc.Doc, error) {
	return m.fetchFn(ctx, id)
}

func (m *mockLineageUC) HydrateDocs(ctx context.Context, docs []domdoc.Doc) ([]domdoc.Doc, error) {
	return m.hydrateFn(ctx, docs)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(
		ctx context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
	) (search.Result, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
) (search.Result, error) {
	return m.searchFn(ctx, typ, f, opts, ext)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	report healthuc.Report
}

func (m *mockHealthUC) Check(_ context.Context) healthuc.Report { return m.report }
