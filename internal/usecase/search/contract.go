package search

import (
	"context"

	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// Planner turns filters into index requests. The last request supplies the
// sort value of intersected rows.
type Planner interface {
	Generate(typ string, f search.Filters, ext search.Extensions) ([]search.Request, error)
}

// Querier reads view rows.
type Querier interface {
	Query(ctx context.Context, viewName string, p search.Params) ([]search.Row, error)
}
