// Package search holds the value types shared by the search planner, the
// executor and the index repository.
package search

// Result types.
const (
	TypeReports  = "reports"
	TypeContacts = "contacts"
)

// DefaultLimit is the page size used when Options.Limit is not set.
const DefaultLimit = 50

// Options controls pagination. QueryResultsCache, when set, is the full
// intersected row set returned by a previous call with the same filters.
type Options struct {
	Skip              int   `json:"skip"`
	Limit             int   `json:"limit"`
	QueryResultsCache []Row `json:"query_results_cache,omitempty"`
}

// WithDefaults fills unset pagination values.
func (o Options) WithDefaults() Options {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Skip < 0 {
		o.Skip = 0
	}
	return o
}

// DateRange bounds reported dates (epoch milliseconds, inclusive). Zero means open.
type DateRange struct {
	From int64 `json:"from,omitempty"`
	To   int64 `json:"to,omitempty"`
}

// Filters is the semantic query the planner turns into index requests.
type Filters struct {
	Search     string     `json:"search,omitempty"`
	Date       *DateRange `json:"date,omitempty"`
	Forms      []string   `json:"forms,omitempty"`
	Facilities []string   `json:"facilities,omitempty"`
	Valid      *bool      `json:"valid,omitempty"`
	Verified   []*bool    `json:"verified,omitempty"`
	Types      []string   `json:"types,omitempty"`
}

// Extensions are caller-signalled modes that change planning and results.
type Extensions struct {
	SortByLastVisitedDate bool `json:"sort_by_last_visited_date,omitempty"`
}

// Result is a page of document ids. QueryResultsCache is set only when the
// caller asked for last-visited sorting.
type Result struct {
	DocIDs            []string `json:"doc_ids"`
	QueryResultsCache []Row    `json:"query_results_cache,omitempty"`
}
