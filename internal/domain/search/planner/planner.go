// Package planner turns search filters into index requests.
package planner

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/lineage/internal/domain"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	"github.com/kailas-cloud/lineage/internal/domain/view"
)

// freetextEnd closes the prefix range of a freetext word.
const freetextEnd = "\ufff0"

// Planner is the default search request planner.
type Planner struct {
	contactTypes []string
}

// New creates a planner. contactTypes are searched when no type filter is set.
func New(contactTypes []string) *Planner {
	return &Planner{contactTypes: contactTypes}
}

// ShouldSortByLastVisitedDate reports whether ext asks for last-visited sorting.
func ShouldSortByLastVisitedDate(ext search.Extensions) bool {
	return ext.SortByLastVisitedDate
}

// Generate builds the requests for a search of the given type.
// The last request supplies the sort value of the intersected rows.
func (p *Planner) Generate(typ string, f search.Filters, ext search.Extensions) ([]search.Request, error) {
	switch typ {
	case search.TypeReports:
		return p.reports(f)
	case search.TypeContacts:
		return p.contacts(f, ext)
	default:
		return nil, fmt.Errorf("%w: unknown search type %q", domain.ErrInvalidFilter, typ)
	}
}

func (p *Planner) reports(f search.Filters) ([]search.Request, error) {
	var reqs []search.Request

	if len(f.Forms) > 0 {
		reqs = append(reqs, keysRequest(view.ReportsByForm, f.Forms))
	}
	if len(f.Facilities) > 0 {
		reqs = append(reqs, keysRequest(view.ReportsByPlace, f.Facilities))
	}
	if f.Valid != nil {
		reqs = append(reqs, search.Single{
			View:   view.ReportsByValidity,
			Params: search.Params{Key: []any{*f.Valid}},
		})
	}
	if len(f.Verified) > 0 {
		keys := make([][]any, 0, len(f.Verified))
		for _, v := range f.Verified {
			if v == nil {
				keys = append(keys, []any{nil})
				continue
			}
			keys = append(keys, []any{*v})
		}
		reqs = append(reqs, search.Single{View: view.ReportsByVerification, Params: search.Params{Keys: keys}})
	}
	reqs = append(reqs, freetextRequests(view.ReportsByFreetext, f.Search)...)

	date, err := dateRequest(f.Date, len(reqs) == 0)
	if err != nil {
		return nil, err
	}
	if date != nil {
		reqs = append(reqs, date)
	}
	return reqs, nil
}

// dateRequest returns the reports_by_date request. Without other requests it is
// ordered newest first, so the store paginates it directly.
func dateRequest(r *search.DateRange, alone bool) (search.Request, error) {
	if r == nil {
		if !alone {
			return nil, nil
		}
		return search.Single{
			View:    view.ReportsByDate,
			Params:  search.Params{Descending: true},
			Ordered: true,
		}, nil
	}
	if r.From < 0 || r.To < 0 || (r.To != 0 && r.From > r.To) {
		return nil, fmt.Errorf("%w: invalid date range %d..%d", domain.ErrInvalidFilter, r.From, r.To)
	}

	lo := []any{float64(r.From)}
	hi := []any{float64(r.To)}
	if r.To == 0 {
		hi = []any{map[string]any{}}
	}
	if !alone {
		return search.Single{View: view.ReportsByDate, Params: search.Params{StartKey: lo, EndKey: hi}}, nil
	}
	return search.Single{
		View:    view.ReportsByDate,
		Params:  search.Params{StartKey: hi, EndKey: lo, Descending: true},
		Ordered: true,
	}, nil
}

func (p *Planner) contacts(f search.Filters, ext search.Extensions) ([]search.Request, error) {
	var reqs []search.Request

	if len(f.Facilities) > 0 {
		reqs = append(reqs, keysRequest(view.ContactsByParent, f.Facilities))
	}
	reqs = append(reqs, freetextRequests(view.ContactsByFreetext, f.Search)...)

	types := f.Types
	if len(types) == 0 {
		types = p.contactTypes
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no contact types to search", domain.ErrInvalidFilter)
	}
	byType := keysRequest(view.ContactsByType, types)

	if !ShouldSortByLastVisitedDate(ext) {
		return append(reqs, byType), nil
	}

	byType.Map = mutedFirstSort
	return append(reqs, byType, search.Union{
		View:      view.ContactsByLastVisited,
		ParamSets: []search.Params{{}},
		Map:       lastVisited,
	}), nil
}

// mutedFirstSort pushes muted contacts below the others when rows are
// ordered by last visit.
func mutedFirstSort(row search.Row) search.Row {
	row.Sort = "0"
	if order, ok := row.Value.([]any); ok && len(order) > 0 && order[0] == true {
		row.Sort = "1"
	}
	return row
}

// lastVisited projects a contacts_by_last_visited row [contactId, date] to
// id=contactId, value=date. Rows are key ordered, so the last row per contact
// carries the latest visit; Sort is the zero padded date.
func lastVisited(row search.Row) search.Row {
	if len(row.Key) < 2 {
		return row
	}
	id, _ := row.Key[0].(string)
	date, _ := row.Key[1].(float64)
	return search.Row{
		ID:    id,
		Key:   row.Key,
		Value: date,
		Sort:  fmt.Sprintf("%015.0f", date),
	}
}

func keysRequest(viewName string, values []string) search.Single {
	keys := make([][]any, 0, len(values))
	for _, v := range values {
		keys = append(keys, []any{v})
	}
	return search.Single{View: viewName, Params: search.Params{Keys: keys}}
}

// freetextRequests issues one request per word: "key:value" words match exactly,
// the others match as prefixes.
func freetextRequests(viewName, text string) []search.Request {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	reqs := make([]search.Request, 0, len(words))
	seen := make(map[string]bool, len(words))
	for _, word := range words {
		if seen[word] {
			continue
		}
		seen[word] = true
		if strings.Contains(word, ":") {
			reqs = append(reqs, search.Single{View: viewName, Params: search.Params{Key: []any{word}}})
			continue
		}
		reqs = append(reqs, search.Single{
			View:   viewName,
			Params: search.Params{StartKey: []any{word}, EndKey: []any{word + freetextEnd}},
		})
	}
	return reqs
}
