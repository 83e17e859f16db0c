package search

import (
	"sort"

	"github.com/kailas-cloud/lineage/internal/db/collate"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// Intersect keeps the ids present in every result set. The row of the last
// set is the base; every other set's non-empty Sort is prepended to the
// base sort string. Ids keep their first-set order. Within a set the last
// row for an id wins.
func Intersect(results [][]search.Row) []search.Row {
	if len(results) == 0 {
		return nil
	}

	byID := make([]map[string]search.Row, len(results))
	for i, rows := range results {
		m := make(map[string]search.Row, len(rows))
		for _, r := range rows {
			m[r.ID] = r
		}
		byID[i] = m
	}

	base := byID[len(byID)-1]
	others := byID[:len(byID)-1]

	var out []search.Row
	seen := make(map[string]bool, len(byID[0]))
	for _, first := range results[0] {
		id := first.ID
		if seen[id] || !inAll(id, byID) {
			continue
		}
		seen[id] = true

		row := base[id]
		for _, m := range others {
			if frag := m[id].Sort; frag != "" {
				row.Sort = frag + " " + row.SortOrValueString()
			}
		}
		out = append(out, row)
	}
	return out
}

func inAll(id string, maps []map[string]search.Row) bool {
	for _, m := range maps {
		if _, ok := m[id]; !ok {
			return false
		}
	}
	return true
}

// SortRows returns rows stably sorted by Sort, or Value when Sort is empty,
// in view collation order.
func SortRows(rows []search.Row) []search.Row {
	keyed := make([]sortable, len(rows))
	for i := range rows {
		keyed[i] = sortable{key: collate.EncodeValue(rows[i].SortKey()), row: rows[i]}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].key < keyed[j].key })

	sorted := make([]search.Row, len(keyed))
	for i := range keyed {
		sorted[i] = keyed[i].row
	}
	return sorted
}

type sortable struct {
	key string
	row search.Row
}

// PageRows sorts rows and returns the requested page. Reports page from the
// end, newest first; other types page from the start.
func PageRows(typ string, rows []search.Row, opts search.Options) []search.Row {
	return pageSlice(typ, SortRows(rows), opts.Skip, opts.Limit)
}

func pageSlice(typ string, rows []search.Row, skip, limit int) []search.Row {
	if skip > len(rows) {
		return []search.Row{}
	}

	var start, end int
	if typ == search.TypeReports {
		end = len(rows) - skip
		start = max(end-limit, 0)
	} else {
		start = skip
		end = min(start+limit, len(rows))
	}
	return rows[start:end]
}
