package lineage

import (
	"context"
	"reflect"
	"sync"
	"testing"

	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
)

// fakeStore serves documents and the lineage view from memory. Every read
// returns fresh copies, like a real store.
type fakeStore struct {
	mu        sync.Mutex
	docs      map[string]domdoc.Doc
	defs      *domview.Definitions
	bulkCalls [][]string
	queries   int
	queryErr  error
}

func newFakeStore(docs ...domdoc.Doc) *fakeStore {
	fs := &fakeStore{
		docs: make(map[string]domdoc.Doc),
		defs: domview.NewDefinitions(domain.DefaultContactTypes()),
	}
	for _, d := range docs {
		fs.docs[d.ID()] = d
	}
	return fs
}

func (f *fakeStore) Get(_ context.Context, id string) (domdoc.Doc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return d.Clone(), nil
}

func (f *fakeStore) BulkGet(_ context.Context, ids []string) ([]domdoc.Doc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bulkCalls = append(f.bulkCalls, ids)
	out := make([]domdoc.Doc, len(ids))
	for i, id := range ids {
		out[i] = f.docs[id].Clone()
	}
	return out, nil
}

func (f *fakeStore) Query(_ context.Context, viewName string, p search.Params) ([]search.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if viewName != domview.DocsByIDLineage || len(p.StartKey) == 0 {
		return nil, nil
	}

	id, _ := p.StartKey[0].(string)
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}

	var rows []search.Row
	for _, r := range f.defs.Emit(doc) {
		if r.View != domview.DocsByIDLineage {
			continue
		}
		row := search.Row{ID: id, Key: r.Key, Value: r.Value}
		if p.IncludeDocs {
			target := id
			if linked := domdoc.AsDoc(r.Value).ID(); linked != "" {
				target = linked
			}
			row.Doc = f.docs[target].Clone()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (f *fakeStore) delete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
}

// fakeResolver maps shortcodes to ids.
type fakeResolver struct {
	ids map[string]string
	err error
}

func (r *fakeResolver) Resolve(_ context.Context, code string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	id, ok := r.ids[code]
	if !ok {
		return "", domain.ErrShortcodeNotFound
	}
	return id, nil
}

// stub builds a minified reference chain: stub("a", "b") is {_id: a, parent: {_id: b}}.
func stub(ids ...string) map[string]any {
	var out map[string]any
	for i := len(ids) - 1; i >= 0; i-- {
		ref := map[string]any{"_id": ids[i]}
		if out != nil {
			ref["parent"] = out
		}
		out = ref
	}
	return out
}

// testHierarchy is a district hospital > health center > clinic tree with a
// nurse, a community health worker, a patient and two reports by the worker.
func testHierarchy() []domdoc.Doc {
	return []domdoc.Doc{
		{"_id": "dh", "type": "district_hospital", "name": "District"},
		{"_id": "hc", "type": "health_center", "name": "Center", "parent": stub("dh"), "contact": stub("nurse", "hc", "dh")},
		{"_id": "nurse", "type": "person", "name": "Nurse", "parent": stub("hc", "dh")},
		{"_id": "cl", "type": "clinic", "name": "Clinic", "parent": stub("hc", "dh"), "contact": stub("chw", "cl", "hc", "dh")},
		{"_id": "chw", "type": "person", "name": "Worker", "parent": stub("cl", "hc", "dh")},
		{"_id": "pat", "type": "person", "name": "Patient", "patient_id": "12345", "parent": stub("cl", "hc", "dh")},
		{
			"_id": "r1", "type": "data_record", "form": "V", "reported_date": 100.0,
			"contact": stub("chw", "cl", "hc", "dh"),
			"fields":  map[string]any{"patient_id": "12345"},
		},
		{
			"_id": "r2", "type": "data_record", "form": "V", "reported_date": 200.0,
			"contact": stub("chw", "cl", "hc", "dh"),
		},
	}
}

func newTestService(t *testing.T) (*Service, *fakeStore, *fakeResolver) {
	t.Helper()
	fs := newFakeStore(testHierarchy()...)
	fr := &fakeResolver{ids: map[string]string{"12345": "pat"}}
	return New(fs, fs, fr), fs, fr
}

func sameInstance(a, b domdoc.Doc) bool {
	return a != nil && b != nil && reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}
