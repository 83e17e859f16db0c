package lineage

import (
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// Doc is a schemaless JSON document. Nested references (parent, contact)
// may be Doc or map[string]any.
type Doc = domdoc.Doc

// Search value types.
type (
	// Filters select the documents a search returns.
	Filters = search.Filters
	// DateRange bounds reported dates in epoch milliseconds.
	DateRange = search.DateRange
	// SearchOptions controls paging. Pass QueryResultsCache from a previous
	// last-visited contacts search to page without re-querying.
	SearchOptions = search.Options
	// Extensions toggle search modes.
	Extensions = search.Extensions
	// Row is one intersected view row, as kept in QueryResultsCache.
	Row = search.Row
	// SearchResult is one page of ids.
	SearchResult = search.Result
)

// Search result types.
const (
	TypeReports  = search.TypeReports
	TypeContacts = search.TypeContacts
)
