package search

// Params are the index query parameters of a single view lookup.
// Keys are composite (arrays); nil means "not set".
type Params struct {
	Key         []any   `json:"key,omitempty"`
	Keys        [][]any `json:"keys,omitempty"`
	StartKey    []any   `json:"startkey,omitempty"`
	EndKey      []any   `json:"endkey,omitempty"`
	Descending  bool    `json:"descending,omitempty"`
	Skip        int     `json:"skip,omitempty"`
	Limit       int     `json:"limit,omitempty"` // <= 0 means unbounded
	IncludeDocs bool    `json:"include_docs,omitempty"`
}

// RowMapper projects a raw view row into the row used for intersection.
type RowMapper func(Row) Row

// Request is one planned index lookup: either Single or Union.
type Request interface {
	ViewName() string
	isRequest()
}

// Single queries one view with one parameter set.
// Ordered means the view's natural key order is already the result order,
// so the store may paginate it directly.
type Single struct {
	View    string
	Params  Params
	Ordered bool
	Map     RowMapper
}

// Union ORs several parameter sets against the same view.
type Union struct {
	View      string
	ParamSets []Params
	Map       RowMapper
}

// ViewName returns the queried view.
func (s Single) ViewName() string { return s.View }

// ViewName returns the queried view.
func (u Union) ViewName() string { return u.View }

func (Single) isRequest() {}
func (Union) isRequest()  {}
