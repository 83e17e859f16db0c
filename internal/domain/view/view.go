// Package view defines the secondary indexes ("views") and the map functions
// that emit their rows from documents.
package view

import (
	"strings"
	"unicode"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// View names.
const (
	DocsByIDLineage       = "docs_by_id_lineage"
	ContactsByReference   = "contacts_by_reference"
	ReportsByDate         = "reports_by_date"
	ReportsByForm         = "reports_by_form"
	ReportsByPlace        = "reports_by_place"
	ReportsByValidity     = "reports_by_validity"
	ReportsByVerification = "reports_by_verification"
	ReportsByFreetext     = "reports_by_freetext"
	ContactsByType        = "contacts_by_type"
	ContactsByParent      = "contacts_by_parent"
	ContactsByFreetext    = "contacts_by_freetext"
	ContactsByLastVisited = "contacts_by_last_visited"
)

// maxEmitDepth caps the hierarchy walks of the map functions.
const maxEmitDepth = 50

// Row is one emitted view row.
type Row struct {
	View  string
	Key   []any
	Value any
}

// Definitions emits the rows of every view for a document.
type Definitions struct {
	contactTypes map[string]bool
}

// NewDefinitions creates view definitions for the given contact types.
func NewDefinitions(contactTypes []string) *Definitions {
	m := make(map[string]bool, len(contactTypes))
	for _, t := range contactTypes {
		m[t] = true
	}
	return &Definitions{contactTypes: m}
}

// IsContact reports whether doc belongs to the place/person hierarchy.
func (d *Definitions) IsContact(doc domdoc.Doc) bool {
	return d.contactTypes[doc.Type()]
}

// Emit returns every row doc contributes, across all views.
func (d *Definitions) Emit(doc domdoc.Doc) []Row {
	if doc.ID() == "" {
		return nil
	}
	var rows []Row
	emit := func(view string, key []any, value any) {
		rows = append(rows, Row{View: view, Key: key, Value: value})
	}

	d.emitLineage(doc, emit)

	switch {
	case d.IsContact(doc):
		d.emitContact(doc, emit)
	case doc.IsDataRecord():
		d.emitReport(doc, emit)
	}
	return rows
}

type emitFunc func(view string, key []any, value any)

// emitLineage writes [id, depth] -> {_id: link} for every link of the chain:
// self at depth 0, then parents for contacts, or contact then its parents for reports.
func (d *Definitions) emitLineage(doc domdoc.Doc, emit emitFunc) {
	id := doc.ID()
	walk := func(ref domdoc.Doc, depth int) {
		for ; ref != nil && ref.ID() != "" && depth < maxEmitDepth; depth++ {
			emit(DocsByIDLineage, []any{id, depth}, map[string]any{domdoc.FieldID: ref.ID()})
			ref = ref.Parent()
		}
	}

	switch {
	case d.IsContact(doc):
		walk(doc, 0)
	case doc.IsDataRecord():
		emit(DocsByIDLineage, []any{id, 0}, nil)
		walk(doc.Contact(), 1)
	}
}

func (d *Definitions) emitContact(doc domdoc.Doc, emit emitFunc) {
	id := doc.ID()
	order := []any{IsMuted(doc), strings.ToLower(doc.String("name"))}

	for _, field := range []string{"patient_id", "place_id"} {
		if code := doc.String(field); code != "" {
			emit(ContactsByReference, []any{"shortcode", code}, nil)
		}
	}

	emit(ContactsByType, []any{doc.Type()}, order)
	for _, ancestor := range ancestorIDs(doc.Parent()) {
		emit(ContactsByParent, []any{ancestor}, order)
	}
	for _, word := range freetextTokens(doc) {
		emit(ContactsByFreetext, []any{word}, order)
	}
	emit(ContactsByLastVisited, []any{id, 0.0}, nil)
}

func (d *Definitions) emitReport(doc domdoc.Doc, emit emitFunc) {
	date, _ := doc.Number("reported_date")

	if visited := doc.Fields().String("visited_contact_uuid"); visited != "" {
		emit(ContactsByLastVisited, []any{visited, date}, nil)
	}

	form := doc.String("form")
	if form == "" {
		return
	}

	emit(ReportsByDate, []any{date}, date)
	emit(ReportsByForm, []any{form}, date)
	for _, place := range ancestorIDs(doc.Contact()) {
		emit(ReportsByPlace, []any{place}, date)
	}

	errs, _ := doc["errors"].([]any)
	emit(ReportsByValidity, []any{len(errs) == 0}, date)

	var verified any
	if v, ok := doc["verified"].(bool); ok {
		verified = v
	}
	emit(ReportsByVerification, []any{verified}, date)

	for _, word := range freetextTokens(doc) {
		emit(ReportsByFreetext, []any{word}, date)
	}
}

// IsMuted reports whether a contact has been muted.
func IsMuted(doc domdoc.Doc) bool {
	switch v := doc["muted"].(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// ancestorIDs lists ref and every ancestor above it.
func ancestorIDs(ref domdoc.Doc) []string {
	var ids []string
	for depth := 0; ref != nil && depth < maxEmitDepth; depth++ {
		if id := ref.ID(); id != "" {
			ids = append(ids, id)
		}
		ref = ref.Parent()
	}
	return ids
}

// freetextTokens indexes string fields of the document and its form fields:
// every word of at least three characters, plus "key:value" for the whole value.
func freetextTokens(doc domdoc.Doc) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}

	index := func(fields domdoc.Doc) {
		for key, raw := range fields {
			value, ok := raw.(string)
			if !ok || value == "" || strings.HasPrefix(key, "_") || key == domdoc.FieldType {
				continue
			}
			value = strings.ToLower(value)
			for _, word := range strings.FieldsFunc(value, isSeparator) {
				if len([]rune(word)) >= 3 {
					add(word)
				}
			}
			add(strings.ToLower(key) + ":" + value)
		}
	}

	index(doc)
	index(doc.Fields())
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
