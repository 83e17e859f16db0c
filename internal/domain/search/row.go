package search

import (
	"encoding/json"
	"strconv"

	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
)

// Row is a single view row. Sort is an optional composite sort string built
// during intersection; empty means "sort by Value".
type Row struct {
	ID    string     `json:"id"`
	Key   []any      `json:"key,omitempty"`
	Value any        `json:"value,omitempty"`
	Sort  string     `json:"sort,omitempty"`
	Doc   domdoc.Doc `json:"doc,omitempty"`
}

// SortKey is the value rows are ordered by.
func (r Row) SortKey() any {
	if r.Sort != "" {
		return r.Sort
	}
	return r.Value
}

// SortOrValueString renders Sort, or Value when Sort is empty, as text.
func (r Row) SortOrValueString() string {
	if r.Sort != "" {
		return r.Sort
	}
	switch v := r.Value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(raw)
	}
}
