package search

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/kailas-cloud/lineage/internal/domain"
	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// --- Mocks ---

type mockPlanner struct {
	reqs []search.Request
	err  error
}

func (m *mockPlanner) Generate(_ string, _ search.Filters, _ search.Extensions) ([]search.Request, error) {
	return m.reqs, m.err
}

type mockQuerier struct {
	mu    sync.Mutex
	rows  map[string][]search.Row
	err   error
	calls []search.Params
}

func (m *mockQuerier) Query(_ context.Context, viewName string, p search.Params) ([]search.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, p)
	if m.err != nil {
		return nil, m.err
	}
	// Copy so mapped rows never leak between calls.
	src := m.rows[viewName]
	if len(p.Key) > 0 {
		src = m.rows[fmt.Sprintf("%s/%v", viewName, p.Key[0])]
	}
	out := make([]search.Row, len(src))
	copy(out, src)
	return out, nil
}

func idRows(ids ...string) []search.Row {
	rows := make([]search.Row, len(ids))
	for i, id := range ids {
		rows[i] = search.Row{ID: id, Value: id}
	}
	return rows
}

func numberedRows(n int) []search.Row {
	rows := make([]search.Row, n)
	for i := range rows {
		rows[i] = search.Row{ID: fmt.Sprintf("r%d", i), Value: float64(i)}
	}
	return rows
}

// --- Search ---

func TestSearch_PlannerErrorRejectsBeforeQuery(t *testing.T) {
	mq := &mockQuerier{}
	svc := New(&mockPlanner{err: domain.ErrInvalidFilter}, mq)

	_, err := svc.Search(context.Background(), "tasks", search.Filters{}, search.Options{}, search.Extensions{})
	if !errors.Is(err, domain.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
	if len(mq.calls) != 0 {
		t.Errorf("expected no queries, got %d", len(mq.calls))
	}
}

func TestSearch_FastPathPushesPagination(t *testing.T) {
	mq := &mockQuerier{rows: map[string][]search.Row{"by_date": idRows("c", "a", "b")}}
	planner := &mockPlanner{reqs: []search.Request{
		search.Single{View: "by_date", Params: search.Params{Descending: true}, Ordered: true},
	}}
	svc := New(planner, mq)

	res, err := svc.Search(context.Background(), search.TypeReports, search.Filters{},
		search.Options{Skip: 20, Limit: 10}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"c", "a", "b"}) {
		t.Errorf("fast path must keep store order, got %v", res.DocIDs)
	}
	if len(mq.calls) != 1 {
		t.Fatalf("expected 1 query, got %d", len(mq.calls))
	}
	p := mq.calls[0]
	if p.Skip != 20 || p.Limit != 10 || !p.Descending {
		t.Errorf("query params = %+v", p)
	}
}

func TestSearch_ThreeWayIntersection(t *testing.T) {
	mq := &mockQuerier{rows: map[string][]search.Row{
		"a": idRows("1", "2", "3"),
		"b": idRows("2", "3", "4"),
		"c": idRows("3", "4", "5"),
	}}
	planner := &mockPlanner{reqs: []search.Request{
		search.Single{View: "a"}, search.Single{View: "b"}, search.Single{View: "c"},
	}}

	res, err := New(planner, mq).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"3"}) {
		t.Errorf("DocIDs = %v, want [3]", res.DocIDs)
	}
	if res.QueryResultsCache != nil {
		t.Error("cache is only returned for last-visited sorting")
	}
	for _, p := range mq.calls {
		if p.Skip != 0 || p.Limit != 0 {
			t.Errorf("general path must query in full, got %+v", p)
		}
	}
}

func TestSearch_SingleUnorderedUsesGeneralPath(t *testing.T) {
	mq := &mockQuerier{rows: map[string][]search.Row{"by_type": {
		{ID: "b", Value: "bob"}, {ID: "a", Value: "alice"}, {ID: "c", Value: "carol"},
	}}}
	planner := &mockPlanner{reqs: []search.Request{search.Single{View: "by_type"}}}

	res, err := New(planner, mq).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{Skip: 1, Limit: 1}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"b"}) {
		t.Errorf("DocIDs = %v, want [b]", res.DocIDs)
	}
}

func TestSearch_UnionConcatenatesAndMaps(t *testing.T) {
	mq := &mockQuerier{rows: map[string][]search.Row{
		"forms/V": {{ID: "r1", Value: 1.0}},
		"forms/P": {{ID: "r2", Value: 2.0}, {ID: "r3", Value: 3.0}},
		"valid":   idRows("r1", "r2", "r3"),
	}}
	tag := func(r search.Row) search.Row {
		r.Value = r.Value.(float64) * 10
		return r
	}
	planner := &mockPlanner{reqs: []search.Request{
		search.Single{View: "valid"},
		search.Union{View: "forms", ParamSets: []search.Params{{Key: []any{"V"}}, {Key: []any{"P"}}}, Map: tag},
	}}

	res, err := New(planner, mq).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{}, search.Extensions{SortByLastVisitedDate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"r1", "r2", "r3"}) {
		t.Errorf("DocIDs = %v", res.DocIDs)
	}
	if len(res.QueryResultsCache) != 3 || res.QueryResultsCache[2].Value != 30.0 {
		t.Errorf("cache should hold mapped union rows, got %+v", res.QueryResultsCache)
	}
}

func TestSearch_ReusesQueryResultsCache(t *testing.T) {
	mq := &mockQuerier{}
	planner := &mockPlanner{reqs: []search.Request{search.Single{View: "a"}, search.Single{View: "b"}}}
	cache := numberedRows(5)

	res, err := New(planner, mq).Search(context.Background(), search.TypeContacts, search.Filters{},
		search.Options{Skip: 3, Limit: 10, QueryResultsCache: cache}, search.Extensions{SortByLastVisitedDate: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mq.calls) != 0 {
		t.Errorf("cached search must not query, got %d calls", len(mq.calls))
	}
	if !reflect.DeepEqual(res.DocIDs, []string{"r3", "r4"}) {
		t.Errorf("DocIDs = %v", res.DocIDs)
	}
	if len(res.QueryResultsCache) != 5 {
		t.Errorf("cache should be handed back, got %d rows", len(res.QueryResultsCache))
	}
}

func TestSearch_QueryErrorPropagates(t *testing.T) {
	mq := &mockQuerier{err: errors.New("READONLY")}
	planner := &mockPlanner{reqs: []search.Request{search.Single{View: "a"}, search.Single{View: "b"}}}

	if _, err := New(planner, mq).Search(context.Background(), search.TypeReports,
		search.Filters{}, search.Options{}, search.Extensions{}); !errors.Is(err, mq.err) {
		t.Fatalf("expected query error, got %v", err)
	}
}

func TestSearch_DefaultLimit(t *testing.T) {
	mq := &mockQuerier{rows: map[string][]search.Row{"a": numberedRows(60)}}
	planner := &mockPlanner{reqs: []search.Request{search.Single{View: "a"}}}

	res, err := New(planner, mq).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.DocIDs) != search.DefaultLimit {
		t.Errorf("expected %d ids, got %d", search.DefaultLimit, len(res.DocIDs))
	}

	res, err = New(planner, mq).WithDefaultLimit(7).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.DocIDs) != 7 {
		t.Errorf("expected 7 ids, got %d", len(res.DocIDs))
	}
}

func TestSearch_NoRequests(t *testing.T) {
	res, err := New(&mockPlanner{}, &mockQuerier{}).Search(context.Background(), search.TypeContacts,
		search.Filters{}, search.Options{}, search.Extensions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.DocIDs) != 0 {
		t.Errorf("expected no ids, got %v", res.DocIDs)
	}
}
