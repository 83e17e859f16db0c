package lineage

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/lineage/internal/domain"
	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
)

// --- DocumentService ---

func TestDocumentService_Save(t *testing.T) {
	mock := &mockDocumentUC{
		saveFn: func(_ context.Context, doc domdoc.Doc) (string, bool, error) {
			if doc.ID() != "r1" {
				t.Errorf("id = %q, want r1", doc.ID())
			}
			return "r1", true, nil
		},
	}

	svc := &DocumentService{svc: mock}
	id, created, err := svc.Save(context.Background(), Doc{"_id": "r1", "type": "data_record"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "r1" || !created {
		t.Errorf("Save() = %q, %v", id, created)
	}
}

func TestDocumentService_Save_Error(t *testing.T) {
	mock := &mockDocumentUC{
		saveFn: func(_ context.Context, _ domdoc.Doc) (string, bool, error) {
			return "", false, domain.ErrInvalidDocument
		},
	}

	svc := &DocumentService{svc: mock}
	if _, _, err := svc.Save(context.Background(), Doc{}); !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestDocumentService_Get_NotFound(t *testing.T) {
	mock := &mockDocumentUC{
		getFn: func(_ context.Context, _ string) (domdoc.Doc, error) {
			return nil, domain.ErrDocumentNotFound
		},
	}

	svc := &DocumentService{svc: mock}
	if _, err := svc.Get(context.Background(), "x"); !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestDocumentService_Delete(t *testing.T) {
	var deleted string
	mock := &mockDocumentUC{
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}

	svc := &DocumentService{svc: mock}
	if err := svc.Delete(context.Background(), "a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "a" {
		t.Errorf("deleted = %q, want a", deleted)
	}
}

func TestDocumentService_SaveBatch(t *testing.T) {
	mock := &mockBatchUC{
		saveFn: func(_ context.Context, docs []domdoc.Doc) []dombatch.Result {
			return []dombatch.Result{
				dombatch.Saved(docs[0].ID(), true),
				dombatch.Failed(docs[1].ID(), domain.ErrLineageTooDeep),
				dombatch.Saved(docs[2].ID(), false),
			}
		},
	}

	svc := &DocumentService{batch: mock}
	results, err := svc.SaveBatch(context.Background(), []Doc{{"_id": "a"}, {"_id": "b"}, {"_id": "c"}})

	var batchErr *BatchError
	if !errors.As(err, &batchErr) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if len(batchErr.Failed) != 1 || batchErr.Failed[0].ID != "b" || batchErr.Total != 3 {
		t.Errorf("unexpected batch error %+v", batchErr)
	}
	if !errors.Is(err, ErrLineageTooDeep) {
		t.Error("errors.Is should match the failed item's sentinel")
	}
	if len(results) != 3 || !results[0].Created || results[2].Created {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestDocumentService_DeleteBatch_AllOK(t *testing.T) {
	mock := &mockBatchUC{
		deleteFn: func(_ context.Context, ids []string) []dombatch.Result {
			out := make([]dombatch.Result, len(ids))
			for i, id := range ids {
				out[i] = dombatch.Deleted(id)
			}
			return out
		},
	}

	svc := &DocumentService{batch: mock}
	results, err := svc.DeleteBatch(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 || results[1].ID != "b" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestMinify(t *testing.T) {
	doc := Doc{
		"_id":     "c1",
		"type":    "person",
		"parent":  Doc{"_id": "cl", "name": "Clinic", "parent": Doc{"_id": "hc"}},
		"contact": map[string]any{"_id": "x", "phone": "+1"},
	}
	if err := Minify(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Doc{"_id": "cl", "parent": Doc{"_id": "hc"}}
	if !reflect.DeepEqual(doc.Parent(), want) {
		t.Errorf("parent = %v, want %v", doc.Parent(), want)
	}
	if doc.Contact().String("phone") != "" {
		t.Error("contact should be stripped to a stub")
	}

	stub, err := MinifyLineage(Doc{"_id": "a", "name": "A", "parent": Doc{"_id": "b", "name": "B"}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(stub, Doc{"_id": "a", "parent": Doc{"_id": "b"}}) {
		t.Errorf("MinifyLineage() = %v", stub)
	}
}

// --- LineageService ---

func TestLineageService_FetchHydratedDoc(t *testing.T) {
	mock := &mockLineageUC{
		fetchFn: func(_ context.Context, id string) (domdoc.Doc, error) {
			return domdoc.Doc{"_id": id, "contact": domdoc.Doc{"_id": "chw", "name": "Jane"}}, nil
		},
	}

	svc := &LineageService{svc: mock}
	doc, err := svc.FetchHydratedDoc(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Contact().String("name") != "Jane" {
		t.Errorf("unexpected doc %v", doc)
	}
}

func TestLineageService_FetchHydratedDoc_Error(t *testing.T) {
	mock := &mockLineageUC{
		fetchFn: func(_ context.Context, _ string) (domdoc.Doc, error) {
			return nil, domain.ErrShortcodeNotFound
		},
	}

	svc := &LineageService{svc: mock}
	if _, err := svc.FetchHydratedDoc(context.Background(), "r1"); !errors.Is(err, ErrShortcodeNotFound) {
		t.Fatalf("expected ErrShortcodeNotFound, got %v", err)
	}
}

func TestLineageService_FetchChain(t *testing.T) {
	mock := &mockLineageUC{
		chainFn: func(_ context.Context, id string) ([]domdoc.Doc, error) {
			return []domdoc.Doc{{"_id": id}, nil, {"_id": "hc"}}, nil
		},
	}

	svc := &LineageService{svc: mock}
	chain, err := svc.FetchChain(context.Background(), "cl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chain) != 3 || chain[1] != nil {
		t.Errorf("unexpected chain %v", chain)
	}
}

func TestLineageService_HydrateDocs(t *testing.T) {
	var got []domdoc.Doc
	mock := &mockLineageUC{
		hydrateFn: func(_ context.Context, docs []domdoc.Doc) ([]domdoc.Doc, error) {
			got = docs
			return docs, nil
		},
	}

	svc := &LineageService{svc: mock}
	in := []Doc{{"_id": "a"}, {"_id": "b"}}
	out, err := svc.HydrateDocs(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || len(out) != 2 {
		t.Errorf("docs not passed through: got %d, out %d", len(got), len(out))
	}
}

// --- SearchService ---

func TestSearchService_Reports(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(
			_ context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
		) (search.Result, error) {
			if typ != TypeReports {
				t.Errorf("type = %q", typ)
			}
			if ext.SortByLastVisitedDate {
				t.Error("reports never sort by last visited date")
			}
			if opts.Limit != 20 || len(f.Forms) != 1 {
				t.Errorf("unexpected call %+v %+v", f, opts)
			}
			return search.Result{DocIDs: []string{"r2", "r1"}}, nil
		},
	}

	svc := &SearchService{svc: mock}
	res, err := svc.Reports(context.Background(), Filters{Forms: []string{"V"}}, SearchOptions{Limit: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"r2", "r1"}) {
		t.Errorf("DocIDs = %v", res.DocIDs)
	}
}

func TestSearchService_Contacts_Error(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(
			_ context.Context, typ string, _ search.Filters, _ search.Options, ext search.Extensions,
		) (search.Result, error) {
			if typ != TypeContacts || !ext.SortByLastVisitedDate {
				t.Errorf("unexpected call %q %+v", typ, ext)
			}
			return search.Result{}, domain.ErrInvalidFilter
		},
	}

	svc := &SearchService{svc: mock}
	_, err := svc.Contacts(context.Background(), Filters{}, SearchOptions{}, Extensions{SortByLastVisitedDate: true})
	if !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}

// --- Health ---

func TestClient_Health(t *testing.T) {
	c := &Client{healthSvc: &mockHealthUC{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK, "views": healthuc.CheckError},
	}}}

	h := c.Health(context.Background())
	if h.Status != "degraded" || h.Checks["views"] != "error" || h.Checks["database"] != "ok" {
		t.Errorf("unexpected health %+v", h)
	}
}
