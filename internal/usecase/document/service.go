package document

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/usecase/lineage"
)

// Service stores documents in their minified shape and keeps the views in
// sync with them.
type Service struct {
	repo    Repository
	indexer Indexer
	newID   func() string
}

// New creates a document service.
func New(repo Repository, indexer Indexer) *Service {
	return &Service{
		repo:    repo,
		indexer: indexer,
		newID:   uuid.NewString,
	}
}

// Save minifies a copy of doc, stores it and re-indexes it. A doc without an
// _id gets a generated one. Hydrated input is accepted; the caller's doc is
// left untouched. Returns the stored id and whether the document is new.
func (s *Service) Save(ctx context.Context, doc domdoc.Doc) (string, bool, error) {
	stored := doc.Acyclic()
	if stored == nil {
		stored = domdoc.Doc{}
	}
	if stored.ID() == "" {
		stored[domdoc.FieldID] = s.newID()
	}

	if err := lineage.Minify(stored); err != nil {
		return "", false, fmt.Errorf("minify document: %w", err)
	}

	created, err := s.repo.Put(ctx, stored)
	if err != nil {
		return "", false, fmt.Errorf("put document: %w", err)
	}
	if err := s.indexer.Index(ctx, stored); err != nil {
		return "", false, fmt.Errorf("index document %s: %w", stored.ID(), err)
	}
	return stored.ID(), created, nil
}

// Get returns the stored (minified) document.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Doc, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// Delete removes a document and its view rows.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if err := s.indexer.Unindex(ctx, id); err != nil {
		return fmt.Errorf("unindex document %s: %w", id, err)
	}
	return nil
}
