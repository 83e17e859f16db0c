package lineage

import (
	"github.com/kailas-cloud/lineage/internal/domain"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// Minify strips doc in place to its stored shape: parent becomes a chain of
// id stubs, contact becomes {_id, parent: stubs}, and the derived patient of
// a data_record is removed. A nil doc is a no-op.
func Minify(doc domdoc.Doc) error {
	if doc == nil {
		return nil
	}

	if parent := doc.Parent(); parent != nil {
		stub, err := MinifyLineage(parent)
		if err != nil {
			return err
		}
		doc[domdoc.FieldParent] = stub
	}

	if contact := doc.Contact(); contact.ID() != "" {
		stub := domdoc.Doc{domdoc.FieldID: contact.ID()}
		if parent := contact.Parent(); parent != nil {
			parentStub, err := MinifyLineage(parent)
			if err != nil {
				return err
			}
			stub[domdoc.FieldParent] = parentStub
		}
		doc[domdoc.FieldContact] = stub
	}

	if doc.IsDataRecord() {
		delete(doc, domdoc.FieldPatient)
	}
	return nil
}

// MinifyLineage returns the {_id, parent: {_id, ...}} stub chain of ref,
// stopping at the first ancestor without an id. A ref without an id is
// returned unchanged.
func MinifyLineage(ref domdoc.Doc) (domdoc.Doc, error) {
	if ref.ID() == "" {
		return ref, nil
	}

	root := domdoc.Doc{domdoc.FieldID: ref.ID()}
	stub := root
	for depth := 0; ref.ParentID() != ""; depth++ {
		if depth >= domain.MaxLineageDepth {
			return nil, domain.ErrLineageTooDeep
		}
		next := domdoc.Doc{domdoc.FieldID: ref.ParentID()}
		stub[domdoc.FieldParent] = next
		stub = next
		ref = ref.Parent()
	}
	return root, nil
}
