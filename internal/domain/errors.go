package domain

import "errors"

var (
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrInvalidDocument signals a document that cannot be stored (bad id, wrong shape).
	ErrInvalidDocument = errors.New("invalid document")
	// ErrShortcodeNotFound signals a patient shortcode that resolves to no contact.
	ErrShortcodeNotFound = errors.New("shortcode not found")
	// ErrInvalidFilter signals a search request the planner cannot turn into queries.
	ErrInvalidFilter = errors.New("invalid search filter")
	// ErrLineageTooDeep signals a reference chain longer than MaxLineageDepth,
	// which in practice means the stored hierarchy contains a cycle.
	ErrLineageTooDeep = errors.New("lineage too deep")
)
