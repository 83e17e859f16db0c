// Package view stores view rows in lexicographically ordered sets and answers
// key/range queries over them.
package view

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/lineage/internal/db"
	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
)

// store is the consumer interface for view rows (ISP).
type store interface {
	ZAddMulti(ctx context.Context, items []db.SortedSetItem) error
	ZRemMulti(ctx context.Context, items []db.SortedSetItem) error
	ZRangeByLexMulti(ctx context.Context, ranges []db.LexRange) ([][]string, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, key string) error
}

// docReader loads documents for IncludeDocs.
type docReader interface {
	BulkGet(ctx context.Context, ids []string) ([]domdoc.Doc, error)
}

// Repo implements view queries and index maintenance.
type Repo struct {
	store  store
	docs   docReader
	defs   *domview.Definitions
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

// New creates a view repository.
func New(s store, docs docReader, defs *domview.Definitions, opts ...Option) *Repo {
	r := &Repo{store: s, docs: docs, defs: defs, prefix: domain.DefaultKeyPrefix}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Query returns the rows of a view matching p, in key order
// (reverse key order when p.Descending).
func (r *Repo) Query(ctx context.Context, viewName string, p search.Params) ([]search.Row, error) {
	key := r.viewKey(viewName)
	ranges := buildRanges(key, p)

	results, err := r.store.ZRangeByLexMulti(ctx, ranges)
	if err != nil {
		return nil, fmt.Errorf("query view %s: %w", viewName, err)
	}

	var rows []search.Row
	for _, members := range results {
		for _, m := range members {
			row, err := decodeMember(m)
			if err != nil {
				return nil, fmt.Errorf("view %s: %w", viewName, err)
			}
			rows = append(rows, row)
		}
	}

	// Multi-key lookups paginate the concatenated result.
	if len(p.Keys) > 0 {
		rows = paginate(rows, p.Skip, p.Limit)
	}

	if p.IncludeDocs && len(rows) > 0 {
		if err := r.includeDocs(ctx, rows); err != nil {
			return nil, fmt.Errorf("view %s include docs: %w", viewName, err)
		}
	}
	return rows, nil
}

// includeDocs attaches documents to rows. A value of the form {"_id": X}
// links the row to document X; otherwise the emitting document is used.
func (r *Repo) includeDocs(ctx context.Context, rows []search.Row) error {
	targets := make([]string, len(rows))
	var ids []string
	seen := make(map[string]int)
	for i := range rows {
		target := rows[i].ID
		if linked := domdoc.AsDoc(rows[i].Value).ID(); linked != "" {
			target = linked
		}
		targets[i] = target
		if _, ok := seen[target]; !ok {
			seen[target] = len(ids)
			ids = append(ids, target)
		}
	}

	docs, err := r.docs.BulkGet(ctx, ids)
	if err != nil {
		return err
	}
	for i := range rows {
		if idx := seen[targets[i]]; idx < len(docs) {
			rows[i].Doc = docs[idx]
		}
	}
	return nil
}

// Index replaces the rows doc contributes to every view.
func (r *Repo) Index(ctx context.Context, doc domdoc.Doc) error {
	id := doc.ID()
	if id == "" {
		return fmt.Errorf("%w: missing _id", domain.ErrInvalidDocument)
	}

	next := make(map[string][]string)
	for _, row := range r.defs.Emit(doc) {
		m, err := encodeMember(row.Key, id, row.Value)
		if err != nil {
			return fmt.Errorf("encode %s row: %w", row.View, err)
		}
		next[row.View] = append(next[row.View], m)
	}

	prev, err := r.storedRows(ctx, id)
	if err != nil {
		return err
	}

	var stale, fresh []db.SortedSetItem
	for viewName, members := range prev {
		keep := toSet(next[viewName])
		for _, m := range members {
			if !keep[m] {
				stale = append(stale, db.SortedSetItem{Key: r.viewKey(viewName), Member: m})
			}
		}
	}
	for viewName, members := range next {
		for _, m := range members {
			fresh = append(fresh, db.SortedSetItem{Key: r.viewKey(viewName), Member: m})
		}
	}

	if err := r.store.ZRemMulti(ctx, stale); err != nil {
		return fmt.Errorf("remove stale rows of %s: %w", id, err)
	}
	if err := r.store.ZAddMulti(ctx, fresh); err != nil {
		return fmt.Errorf("add rows of %s: %w", id, err)
	}
	return r.storeRows(ctx, id, next)
}

// Unindex removes every row of the document id.
func (r *Repo) Unindex(ctx context.Context, id string) error {
	prev, err := r.storedRows(ctx, id)
	if err != nil {
		return err
	}

	var stale []db.SortedSetItem
	for viewName, members := range prev {
		for _, m := range members {
			stale = append(stale, db.SortedSetItem{Key: r.viewKey(viewName), Member: m})
		}
	}
	if err := r.store.ZRemMulti(ctx, stale); err != nil {
		return fmt.Errorf("remove rows of %s: %w", id, err)
	}
	if err := r.store.Del(ctx, r.rowsKey(id)); err != nil {
		return fmt.Errorf("del %s: %w", r.rowsKey(id), err)
	}
	return nil
}

// storedRows loads the members a document emitted on its last Index.
func (r *Repo) storedRows(ctx context.Context, id string) (map[string][]string, error) {
	key := r.rowsKey(id)
	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}

	out := make(map[string][]string, len(fields))
	for viewName, raw := range fields {
		var members []string
		if err := json.Unmarshal([]byte(raw), &members); err != nil {
			return nil, fmt.Errorf("decode %s field %s: %w", key, viewName, err)
		}
		out[viewName] = members
	}
	return out, nil
}

func (r *Repo) storeRows(ctx context.Context, id string, rows map[string][]string) error {
	key := r.rowsKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}

	fields := make(map[string]string, len(rows))
	for viewName, members := range rows {
		data, err := json.Marshal(members)
		if err != nil {
			return fmt.Errorf("encode rows of %s: %w", viewName, err)
		}
		fields[viewName] = string(data)
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (r *Repo) viewKey(name string) string {
	return r.prefix + "view:" + name
}

func (r *Repo) rowsKey(id string) string {
	return r.prefix + "rows:" + id
}

func paginate(rows []search.Row, skip, limit int) []search.Row {
	if skip > 0 {
		if skip >= len(rows) {
			return nil
		}
		rows = rows[skip:]
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

func toSet(members []string) map[string]bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	return set
}
