// Package search runs planned index requests, intersects their results and
// paginates them.
package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/lineage/internal/domain/search"
	"github.com/kailas-cloud/lineage/internal/metrics"
)

// Execution paths, used as a metric label.
const (
	pathFast      = "fast"
	pathIntersect = "intersect"
	pathCache     = "cache"
)

// Service executes searches.
type Service struct {
	planner      Planner
	views        Querier
	defaultLimit int
	tracer       trace.Tracer
}

// New creates a search service.
func New(planner Planner, views Querier) *Service {
	return &Service{
		planner:      planner,
		views:        views,
		defaultLimit: search.DefaultLimit,
		tracer:       otel.Tracer("github.com/kailas-cloud/lineage/usecase/search"),
	}
}

// WithDefaultLimit configures the page size used when the caller sets none.
func (s *Service) WithDefaultLimit(limit int) *Service {
	if limit > 0 {
		s.defaultLimit = limit
	}
	return s
}

// Search returns one page of matching document ids.
//
// A single ordered request is paginated by the store. Otherwise every request
// runs in full, the results are intersected by id and paginated here. With
// last-visited sorting the sorted intersection is returned as
// QueryResultsCache; passing it back in opts skips the queries.
func (s *Service) Search(
	ctx context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
) (res search.Result, err error) {
	if opts.Limit <= 0 {
		opts.Limit = s.defaultLimit
	}
	opts = opts.WithDefaults()

	ctx, span := s.tracer.Start(ctx, "search.Search", trace.WithAttributes(
		attribute.String("type", typ),
		attribute.Int("skip", opts.Skip),
		attribute.Int("limit", opts.Limit),
	))
	path := pathIntersect
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		metrics.SearchTotal.WithLabelValues(typ, path, status).Inc()
		span.End()
	}()

	reqs, err := s.planner.Generate(typ, f, ext)
	if err != nil {
		return search.Result{}, fmt.Errorf("plan %s search: %w", typ, err)
	}

	if single, ok := fastPath(reqs); ok && len(opts.QueryResultsCache) == 0 {
		path = pathFast
		single.Params.Skip = opts.Skip
		single.Params.Limit = opts.Limit
		rows, err := s.querySingle(ctx, single)
		if err != nil {
			return search.Result{}, err
		}
		return search.Result{DocIDs: rowIDs(rows)}, nil
	}

	rows := opts.QueryResultsCache
	if len(rows) > 0 {
		path = pathCache
	} else {
		results, err := s.queryAll(ctx, reqs)
		if err != nil {
			return search.Result{}, err
		}
		rows = SortRows(Intersect(results))
	}
	metrics.SearchRows.Observe(float64(len(rows)))

	res = search.Result{DocIDs: rowIDs(pageSlice(typ, rows, opts.Skip, opts.Limit))}
	if ext.SortByLastVisitedDate {
		res.QueryResultsCache = rows
	}
	return res, nil
}

// fastPath reports whether reqs is a single ordered request.
func fastPath(reqs []search.Request) (search.Single, bool) {
	if len(reqs) != 1 {
		return search.Single{}, false
	}
	single, ok := reqs[0].(search.Single)
	if !ok || !single.Ordered {
		return search.Single{}, false
	}
	return single, true
}

// queryAll runs every request concurrently; results keep request order.
func (s *Service) queryAll(ctx context.Context, reqs []search.Request) ([][]search.Row, error) {
	results := make([][]search.Row, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		g.Go(func() error {
			var err error
			switch r := req.(type) {
			case search.Single:
				r.Params.Skip, r.Params.Limit = 0, 0
				results[i], err = s.querySingle(gctx, r)
			case search.Union:
				results[i], err = s.queryUnion(gctx, r)
			default:
				err = fmt.Errorf("unsupported request %T", req)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Service) querySingle(ctx context.Context, r search.Single) ([]search.Row, error) {
	rows, err := s.views.Query(ctx, r.View, r.Params)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", r.View, err)
	}
	return mapRows(rows, r.Map), nil
}

// queryUnion runs every parameter set concurrently and concatenates the
// rows in parameter set order.
func (s *Service) queryUnion(ctx context.Context, r search.Union) ([]search.Row, error) {
	sets := make([][]search.Row, len(r.ParamSets))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range r.ParamSets {
		g.Go(func() error {
			rows, err := s.views.Query(gctx, r.View, p)
			if err != nil {
				return fmt.Errorf("query %s: %w", r.View, err)
			}
			sets[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, rows := range sets {
		total += len(rows)
	}
	out := make([]search.Row, 0, total)
	for _, rows := range sets {
		out = append(out, mapRows(rows, r.Map)...)
	}
	return out, nil
}

func mapRows(rows []search.Row, fn search.RowMapper) []search.Row {
	if fn == nil {
		return rows
	}
	for i := range rows {
		rows[i] = fn(rows[i])
	}
	return rows
}

func rowIDs(rows []search.Row) []string {
	ids := make([]string, len(rows))
	for i := range rows {
		ids[i] = rows[i].ID
	}
	return ids
}
