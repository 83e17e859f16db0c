// Package lineage hydrates documents with their parent, contact and patient
// hierarchies, and strips them back to id stubs for storage.
package lineage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
	"github.com/kailas-cloud/lineage/internal/metrics"
)

// Service fetches and hydrates document lineages.
type Service struct {
	docs       DocumentReader
	views      ViewQuerier
	shortcodes ShortcodeResolver
	tracer     trace.Tracer
}

// New creates a lineage service.
func New(docs DocumentReader, views ViewQuerier, shortcodes ShortcodeResolver) *Service {
	return &Service{
		docs:       docs,
		views:      views,
		shortcodes: shortcodes,
		tracer:     otel.Tracer("github.com/kailas-cloud/lineage/usecase/lineage"),
	}
}

// FetchChain returns the document followed by its ancestors, self first.
// For a data_record the second element is its contact. Ancestors missing from
// the store are nil entries. The result is empty when id has no lineage rows.
func (s *Service) FetchChain(ctx context.Context, id string) ([]domdoc.Doc, error) {
	rows, err := s.views.Query(ctx, domview.DocsByIDLineage, search.Params{
		StartKey:    []any{id},
		EndKey:      []any{id, map[string]any{}},
		IncludeDocs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch lineage of %s: %w", id, err)
	}

	chain := make([]domdoc.Doc, len(rows))
	for i := range rows {
		chain[i] = rows[i].Doc
	}
	return chain, nil
}

// FetchHydratedDoc returns the document with its parents, contacts and
// patient filled in. Documents without lineage are returned as stored.
func (s *Service) FetchHydratedDoc(ctx context.Context, id string) (doc domdoc.Doc, err error) {
	ctx, span := s.tracer.Start(ctx, "lineage.FetchHydratedDoc", trace.WithAttributes(attribute.String("doc_id", id)))
	defer observe(span, "fetch_hydrated_doc", time.Now(), &err)

	chain, err := s.FetchChain(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(chain) == 0 || chain[0] == nil {
		doc, err := s.docs.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", id, err)
		}
		return doc, nil
	}
	self, rest := chain[0], chain[1:]

	var patientChain []domdoc.Doc
	known := newArena()
	known.addAll(chain)
	selfContacts := known.missing(leafContactIDs(chain))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patientChain, err = s.patientChain(gctx, self)
		return err
	})
	g.Go(func() error {
		return s.fetchInto(gctx, known, selfContacts)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Contacts only the patient chain references.
	if err := s.fetchInto(ctx, known, known.missing(leafContactIDs(patientChain))); err != nil {
		return nil, err
	}
	fillContacts(chain, known)
	fillContacts(patientChain, known)

	if err := assemble(self, rest); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", id, err)
	}
	if err := attachPatient(self, patientChain); err != nil {
		return nil, fmt.Errorf("assemble patient of %s: %w", id, err)
	}
	return self, nil
}

// HydrateDocs hydrates a batch in three passes: parents, leaf contacts, then
// patients. Ancestors shared by several documents are fetched once and shared
// by reference. The input is not modified; output order matches input.
func (s *Service) HydrateDocs(ctx context.Context, docs []domdoc.Doc) (out []domdoc.Doc, err error) {
	if len(docs) == 0 {
		return []domdoc.Doc{}, nil
	}

	ctx, span := s.tracer.Start(ctx, "lineage.HydrateDocs", trace.WithAttributes(attribute.Int("docs", len(docs))))
	defer observe(span, "hydrate_docs", time.Now(), &err)

	parentIDs, err := collectParentIDs(docs)
	if err != nil {
		return nil, err
	}

	hydrated := make([]domdoc.Doc, len(docs))
	for i, d := range docs {
		hydrated[i] = d.Clone()
	}

	known := newArena()
	if err := s.fetchInto(ctx, known, parentIDs); err != nil {
		return nil, err
	}
	if err := hydrateParents(hydrated, known); err != nil {
		return nil, err
	}

	nodes, err := chainNodes(hydrated)
	if err != nil {
		return nil, err
	}
	if err := s.fetchInto(ctx, known, known.missing(leafContactIDs(nodes))); err != nil {
		return nil, err
	}
	fillContacts(nodes, known)

	if err := s.hydratePatients(ctx, hydrated); err != nil {
		return nil, err
	}
	return hydrated, nil
}

func (s *Service) hydratePatients(ctx context.Context, docs []domdoc.Doc) error {
	chains := make([][]domdoc.Doc, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	for i, d := range docs {
		if d.PatientShortcode() == "" {
			continue
		}
		g.Go(func() error {
			chain, err := s.patientChain(gctx, d)
			if err != nil {
				return fmt.Errorf("patient of %s: %w", d.ID(), err)
			}
			chains[i] = chain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, d := range docs {
		if err := attachPatient(d, chains[i]); err != nil {
			return fmt.Errorf("assemble patient of %s: %w", d.ID(), err)
		}
	}
	return nil
}

// patientChain resolves the patient shortcode of a data_record and fetches
// the patient's lineage. Documents without a shortcode have no patient.
func (s *Service) patientChain(ctx context.Context, doc domdoc.Doc) ([]domdoc.Doc, error) {
	code := doc.PatientShortcode()
	if code == "" {
		return nil, nil
	}

	patientID, err := s.shortcodes.Resolve(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("resolve patient %s: %w", code, err)
	}
	return s.FetchChain(ctx, patientID)
}

// fetchInto bulk-fetches ids and adds the documents found to the arena.
func (s *Service) fetchInto(ctx context.Context, a *arena, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	fetched, err := s.docs.BulkGet(ctx, ids)
	if err != nil {
		return fmt.Errorf("bulk get %d docs: %w", len(ids), err)
	}
	a.addAll(fetched)
	return nil
}

// attachPatient assembles a patient chain and sets it as doc.patient.
func attachPatient(doc domdoc.Doc, chain []domdoc.Doc) error {
	if len(chain) == 0 || chain[0] == nil {
		return nil
	}
	patient := chain[0]
	if err := assemble(patient, chain[1:]); err != nil {
		return err
	}
	doc[domdoc.FieldPatient] = patient
	return nil
}

func observe(span trace.Span, op string, start time.Time, errp *error) {
	status := "ok"
	if err := *errp; err != nil {
		status = "error"
		if errors.Is(err, domain.ErrDocumentNotFound) {
			status = "not_found"
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	metrics.HydrationsTotal.WithLabelValues(op, status).Inc()
	metrics.HydrationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	span.End()
}
