package lineage

import (
	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// arena holds the documents fetched during one hydration call, keyed by id.
// Every reference to an id resolves to the same instance.
type arena struct {
	docs map[string]domdoc.Doc
}

func newArena() *arena {
	return &arena{docs: make(map[string]domdoc.Doc)}
}

// addAll stores docs not seen yet. Nil entries are skipped.
func (a *arena) addAll(docs []domdoc.Doc) {
	for _, d := range docs {
		id := d.ID()
		if id == "" {
			continue
		}
		if _, ok := a.docs[id]; !ok {
			a.docs[id] = d
		}
	}
}

func (a *arena) get(id string) domdoc.Doc {
	if id == "" {
		return nil
	}
	return a.docs[id]
}

// missing filters ids down to those not in the arena.
func (a *arena) missing(ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := a.docs[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// assemble splices chain into doc, one element per link: the contact first
// for a data_record, then each parent. Nil elements keep the existing stub.
func assemble(doc domdoc.Doc, chain []domdoc.Doc) error {
	next := func() domdoc.Doc {
		if len(chain) == 0 {
			return nil
		}
		d := chain[0]
		chain = chain[1:]
		return d
	}

	current := doc
	if doc.IsDataRecord() {
		if contact := next(); contact != nil {
			doc[domdoc.FieldContact] = contact
		}
		current = doc.Contact()
	}

	for depth := 0; current != nil && current.ParentID() != ""; depth++ {
		if depth >= domain.MaxLineageDepth {
			return domain.ErrLineageTooDeep
		}
		if parent := next(); parent != nil {
			current[domdoc.FieldParent] = parent
		}
		current = current.Parent()
	}
	return nil
}

// collectParentIDs gathers every ancestor id referenced by the stub chains of
// docs. For a data_record the contact counts as the first ancestor; records
// without a contact contribute nothing.
func collectParentIDs(docs []domdoc.Doc) ([]string, error) {
	var ids []string
	seen := make(map[string]bool)

	for _, doc := range docs {
		if doc == nil {
			continue
		}
		current := doc.Parent()
		if doc.IsDataRecord() {
			if doc.ContactID() == "" {
				continue
			}
			current = doc.Contact()
		}

		for depth := 0; current != nil; depth++ {
			if depth > domain.MaxLineageDepth {
				return nil, domain.ErrLineageTooDeep
			}
			if id := current.ID(); id != "" && !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
			current = current.Parent()
		}
	}
	return ids, nil
}

// hydrateParents replaces contact and parent stubs with arena documents.
func hydrateParents(docs []domdoc.Doc, a *arena) error {
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		current := doc
		if doc.IsDataRecord() {
			if contact := a.get(doc.ContactID()); contact != nil {
				doc[domdoc.FieldContact] = contact
			}
			current = doc.Contact()
		}

		for depth := 0; current != nil; depth++ {
			if depth > domain.MaxLineageDepth {
				return domain.ErrLineageTooDeep
			}
			if parent := a.get(current.ParentID()); parent != nil {
				current[domdoc.FieldParent] = parent
			}
			current = current.Parent()
		}
	}
	return nil
}

// chainNodes lists every node of every document's parent chain: the document
// itself (its contact for a data_record) and each ancestor above it.
func chainNodes(docs []domdoc.Doc) ([]domdoc.Doc, error) {
	var nodes []domdoc.Doc
	for _, doc := range docs {
		current := doc
		if doc.IsDataRecord() {
			current = doc.Contact()
		}
		for depth := 0; current != nil; depth++ {
			if depth > domain.MaxLineageDepth {
				return nil, domain.ErrLineageTooDeep
			}
			nodes = append(nodes, current)
			current = current.Parent()
		}
	}
	return nodes, nil
}

// leafContactIDs returns the distinct contact ids of nodes.
func leafContactIDs(nodes []domdoc.Doc) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, n := range nodes {
		if id := n.ContactID(); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// fillContacts replaces the contact stub of each node with its arena document.
func fillContacts(nodes []domdoc.Doc, a *arena) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if contact := a.get(n.ContactID()); contact != nil {
			n[domdoc.FieldContact] = contact
		}
	}
}
