package health

import (
	"context"

	"github.com/kailas-cloud/lineage/internal/domain/search"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ViewQuerier reads view rows; used to probe that the index answers.
type ViewQuerier interface {
	Query(ctx context.Context, viewName string, p search.Params) ([]search.Row, error)
}
