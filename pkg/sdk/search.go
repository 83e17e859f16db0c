package lineage

import (
	"context"
	"fmt"
	"time"
)

// SearchService pages through reports and contacts matching filters.
type SearchService struct {
	svc searchUseCase
	obs *observer
}

// Reports returns report ids, newest first.
func (s *SearchService) Reports(ctx context.Context, f Filters, opts SearchOptions) (SearchResult, error) {
	return s.Search(ctx, TypeReports, f, opts, Extensions{})
}

// Contacts returns contact ids. With ext.SortByLastVisitedDate the result
// carries QueryResultsCache for cheap follow-up pages.
func (s *SearchService) Contacts(
	ctx context.Context, f Filters, opts SearchOptions, ext Extensions,
) (SearchResult, error) {
	return s.Search(ctx, TypeContacts, f, opts, ext)
}

// Search runs a search for typ ("reports" or "contacts").
func (s *SearchService) Search(
	ctx context.Context, typ string, f Filters, opts SearchOptions, ext Extensions,
) (res SearchResult, err error) {
	start := time.Now()
	defer func() { s.obs.observe("search", start, err, "type", typ, "skip", opts.Skip, "limit", opts.Limit) }()

	res, err = s.svc.Search(ctx, typ, f, opts, ext)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search %s: %w", typ, err)
	}
	s.obs.observeItems("search", len(res.DocIDs))
	return res, nil
}
