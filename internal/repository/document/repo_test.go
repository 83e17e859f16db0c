package document

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/lineage/internal/db"
	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// --- Put ---

func TestPut_Create(t *testing.T) {
	repo, ms := newTestRepo(t)
	ctx := context.Background()

	ms.existsFn = func(_ context.Context, key string) (bool, error) {
		if key != "lineage:doc:c1" {
			t.Errorf("unexpected key: %s", key)
		}
		return false, nil
	}
	var stored map[string]any
	ms.jsonSetFn = func(_ context.Context, key, path string, data []byte) error {
		if key != "lineage:doc:c1" {
			t.Errorf("unexpected key: %s", key)
		}
		if path != "$" {
			t.Errorf("unexpected path: %s", path)
		}
		return json.Unmarshal(data, &stored)
	}

	created, err := repo.Put(ctx, domdoc.Doc{"_id": "c1", "type": "person", "parent": map[string]any{"_id": "p1"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected created=true for new doc")
	}
	if stored["type"] != "person" || domdoc.AsDoc(stored["parent"]).ID() != "p1" {
		t.Errorf("stored = %v", stored)
	}
}

func TestPut_Update(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return true, nil }

	created, err := repo.Put(context.Background(), domdoc.Doc{"_id": "c1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Fatal("expected created=false for existing doc")
	}
}

func TestPut_InvalidID(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte) error {
		t.Fatal("JSON.SET must not be called for invalid ids")
		return nil
	}

	for _, doc := range []domdoc.Doc{{}, {"_id": "_design"}, {"_id": "a\nb"}} {
		if _, err := repo.Put(context.Background(), doc); !errors.Is(err, domain.ErrInvalidDocument) {
			t.Errorf("Put(%v): expected ErrInvalidDocument, got %v", doc, err)
		}
	}
}

func TestPut_JSONSetError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonSetFn = func(_ context.Context, _, _ string, _ []byte) error { return errors.New("OOM") }

	if _, err := repo.Put(context.Background(), domdoc.Doc{"_id": "c1"}); err == nil {
		t.Fatal("expected error on JSON.SET failure")
	}
}

func TestPut_KeyPrefix(t *testing.T) {
	ms := &mockStore{}
	repo := New(ms, WithKeyPrefix("{hq}:"))
	ms.jsonSetFn = func(_ context.Context, key, _ string, _ []byte) error {
		if key != "{hq}:doc:c1" {
			t.Errorf("unexpected key: %s", key)
		}
		return nil
	}
	if _, err := repo.Put(context.Background(), domdoc.Doc{"_id": "c1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// --- Get ---

func TestGet_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, key string, paths ...string) ([]byte, error) {
		if key != "lineage:doc:r1" || len(paths) != 1 || paths[0] != "$" {
			t.Errorf("unexpected JSON.GET %s %v", key, paths)
		}
		return []byte(`[{"_id":"r1","type":"data_record","contact":{"_id":"c1"}}]`), nil
	}

	doc, err := repo.Get(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "r1" || doc.ContactID() != "c1" {
		t.Fatalf("unexpected doc: %v", doc)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, db.ErrKeyNotFound
	}

	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGet_EmptyArray(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return []byte(`[]`), nil
	}

	if _, err := repo.Get(context.Background(), "x"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestGet_StoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonGetFn = func(_ context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, &db.Error{Op: db.OpJSONGet, Err: errors.New("connection reset")}
	}

	_, err := repo.Get(context.Background(), "x")
	if err == nil || errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
}

// --- BulkGet ---

func TestBulkGet_KeepsOrderAndGaps(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonMGetFn = func(_ context.Context, keys []string, path string) ([][]byte, error) {
		want := []string{"lineage:doc:a", "lineage:doc:missing", "lineage:doc:b"}
		if !reflect.DeepEqual(keys, want) || path != "$" {
			t.Errorf("unexpected JSON.MGET %v %s", keys, path)
		}
		return [][]byte{[]byte(`[{"_id":"a"}]`), nil, []byte(`[{"_id":"b"}]`)}, nil
	}

	docs, err := repo.BulkGet(context.Background(), []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(docs))
	}
	if docs[0].ID() != "a" || docs[1] != nil || docs[2].ID() != "b" {
		t.Errorf("unexpected docs: %v", docs)
	}
}

func TestBulkGet_Empty(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonMGetFn = func(_ context.Context, _ []string, _ string) ([][]byte, error) {
		t.Fatal("JSON.MGET must not be called without ids")
		return nil, nil
	}

	docs, err := repo.BulkGet(context.Background(), nil)
	if err != nil || docs != nil {
		t.Fatalf("expected nil, nil; got %v, %v", docs, err)
	}
}

func TestBulkGet_Error(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.jsonMGetFn = func(_ context.Context, _ []string, _ string) ([][]byte, error) {
		return nil, errors.New("timeout")
	}

	if _, err := repo.BulkGet(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error")
	}
}

// --- Delete ---

func TestDelete_HappyPath(t *testing.T) {
	repo, ms := newTestRepo(t)
	deleted := ""
	ms.existsFn = func(_ context.Context, key string) (bool, error) {
		return key == "lineage:doc:c1", nil
	}
	ms.delFn = func(_ context.Context, key string) error {
		deleted = key
		return nil
	}

	if err := repo.Delete(context.Background(), "c1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != "lineage:doc:c1" {
		t.Errorf("deleted %q", deleted)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.existsFn = func(_ context.Context, _ string) (bool, error) { return false, nil }

	if err := repo.Delete(context.Background(), "c1"); !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

// --- parseJSONGetResult ---

func TestParseJSONGetResult(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantNil bool
		wantErr bool
	}{
		{"array wrapper", `[{"_id":"a"}]`, "a", false, false},
		{"bare object", `{"_id":"b"}`, "b", false, false},
		{"empty array", `[]`, "", true, false},
		{"empty input", ``, "", true, false},
		{"garbage", `[{`, "", true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := parseJSONGetResult([]byte(tc.raw))
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if (doc == nil) != tc.wantNil {
				t.Fatalf("doc = %v, wantNil %v", doc, tc.wantNil)
			}
			if doc.ID() != tc.wantID {
				t.Errorf("ID = %q, want %q", doc.ID(), tc.wantID)
			}
		})
	}
}
