package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/lineage/internal/db"
	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONMGet(ctx context.Context, keys []string, path string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements the document store client over RedisJSON.
type Repo struct {
	store  store
	prefix string
}

// Option configures the repository.
type Option func(*Repo)

// WithKeyPrefix overrides domain.DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(r *Repo) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// New creates a document repository.
func New(s store, opts ...Option) *Repo {
	r := &Repo{store: s, prefix: domain.DefaultKeyPrefix}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Get returns a document by ID.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Doc, error) {
	key := r.docKey(id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}

	doc, err := parseJSONGetResult(raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	if doc == nil {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// BulkGet returns one entry per id, in input order; missing documents are nil.
func (r *Repo) BulkGet(ctx context.Context, ids []string) ([]domdoc.Doc, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(id)
	}

	raws, err := r.store.JSONMGet(ctx, keys, "$")
	if err != nil {
		return nil, fmt.Errorf("json.mget %d keys: %w", len(keys), err)
	}

	docs := make([]domdoc.Doc, len(ids))
	for i := range ids {
		if i >= len(raws) || raws[i] == nil {
			continue
		}
		doc, err := parseJSONGetResult(raws[i])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		docs[i] = doc
	}
	return docs, nil
}

// Put stores doc under its _id. Returns true if the document was created.
func (r *Repo) Put(ctx context.Context, doc domdoc.Doc) (bool, error) {
	id := doc.ID()
	if err := domdoc.ValidateID(id); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal document: %w", err)
	}

	key := r.docKey(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", key, err)
	}

	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return false, fmt.Errorf("json.set %s: %w", key, err)
	}
	return !exists, nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.docKey(id)

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return domain.ErrDocumentNotFound
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

func (r *Repo) docKey(id string) string {
	return r.prefix + "doc:" + id
}
