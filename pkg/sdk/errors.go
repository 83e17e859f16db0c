package lineage

import "github.com/kailas-cloud/lineage/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrDocumentNotFound  = domain.ErrDocumentNotFound
	ErrInvalidDocument   = domain.ErrInvalidDocument
	ErrShortcodeNotFound = domain.ErrShortcodeNotFound
	ErrInvalidFilter     = domain.ErrInvalidFilter
	ErrLineageTooDeep    = domain.ErrLineageTooDeep
)
