package lineage

import (
	"context"
	"fmt"
	"time"
)

// LineageService returns documents with their hierarchy filled in.
//
// Hydrated documents share ancestor instances and may contain reference
// cycles; use Doc.Acyclic before marshalling them.
type LineageService struct {
	svc lineageUseCase
	obs *observer
}

// FetchChain returns the document followed by its ancestors, nearest
// first. Entries for ancestors that are not stored are nil.
func (s *LineageService) FetchChain(ctx context.Context, id string) (chain []Doc, err error) {
	start := time.Now()
	defer func() { s.obs.observe("fetch_chain", start, err, "doc_id", id) }()

	chain, err = s.svc.FetchChain(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch chain: %w", err)
	}
	s.obs.observeItems("fetch_chain", len(chain))
	return chain, nil
}

// FetchHydratedDoc returns the document with parents, contacts and, for
// reports, the patient filled in.
func (s *LineageService) FetchHydratedDoc(ctx context.Context, id string) (doc Doc, err error) {
	start := time.Now()
	defer func() { s.obs.observe("fetch_hydrated_doc", start, err, "doc_id", id) }()

	doc, err = s.svc.FetchHydratedDoc(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch hydrated doc: %w", err)
	}
	return doc, nil
}

// HydrateDocs hydrates a batch of stored documents. The input is not
// modified; the result keeps input order.
func (s *LineageService) HydrateDocs(ctx context.Context, docs []Doc) (out []Doc, err error) {
	start := time.Now()
	defer func() { s.obs.observe("hydrate_docs", start, err, "count", len(docs)) }()

	out, err = s.svc.HydrateDocs(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("hydrate docs: %w", err)
	}
	s.obs.observeItems("hydrate_docs", len(out))
	return out, nil
}
