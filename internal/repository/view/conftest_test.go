package view

import (
	"context"
	"testing"

	"github.com/kailas-cloud/lineage/internal/db"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	zaddFn    func(ctx context.Context, items []db.SortedSetItem) error
	zremFn    func(ctx context.Context, items []db.SortedSetItem) error
	zrangeFn  func(ctx context.Context, ranges []db.LexRange) ([][]string, error)
	hsetFn    func(ctx context.Context, key string, fields map[string]string) error
	hgetAllFn func(ctx context.Context, key string) (map[string]string, error)
	delFn     func(ctx context.Context, key string) error
}

func (m *mockStore) ZAddMulti(ctx context.Context, items []db.SortedSetItem) error {
	if m.zaddFn != nil {
		return m.zaddFn(ctx, items)
	}
	return nil
}

func (m *mockStore) ZRemMulti(ctx context.Context, items []db.SortedSetItem) error {
	if m.zremFn != nil {
		return m.zremFn(ctx, items)
	}
	return nil
}

func (m *mockStore) ZRangeByLexMulti(ctx context.Context, ranges []db.LexRange) ([][]string, error) {
	if m.zrangeFn != nil {
		return m.zrangeFn(ctx, ranges)
	}
	return make([][]string, len(ranges)), nil
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	return nil
}

func (m *mockStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if m.hgetAllFn != nil {
		return m.hgetAllFn(ctx, key)
	}
	return map[string]string{}, nil
}

func (m *mockStore) Del(ctx context.Context, key string) error {
	if m.delFn != nil {
		return m.delFn(ctx, key)
	}
	return nil
}

// mockDocs serves documents from a map.
type mockDocs struct {
	docs  map[string]domdoc.Doc
	calls [][]string
}

func (m *mockDocs) BulkGet(_ context.Context, ids []string) ([]domdoc.Doc, error) {
	m.calls = append(m.calls, ids)
	out := make([]domdoc.Doc, len(ids))
	for i, id := range ids {
		out[i] = m.docs[id]
	}
	return out, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore, *mockDocs) {
	t.Helper()
	ms := &mockStore{}
	md := &mockDocs{docs: map[string]domdoc.Doc{}}
	defs := domview.NewDefinitions([]string{"health_center", "clinic", "person"})
	return New(ms, md, defs), ms, md
}

func mustMember(t *testing.T, key []any, id string, value any) string {
	t.Helper()
	m, err := encodeMember(key, id, value)
	if err != nil {
		t.Fatalf("encodeMember: %v", err)
	}
	return m
}
