package health

import (
	"context"

	"github.com/kailas-cloud/lineage/internal/domain/search"
	"github.com/kailas-cloud/lineage/internal/domain/view"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    DBPinger
	views ViewQuerier
}

// New creates a Service. views can be nil.
func New(db DBPinger, views ViewQuerier) *Service {
	return &Service{db: db, views: views}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.views != nil {
		_, err := s.views.Query(ctx, view.DocsByIDLineage, search.Params{Limit: 1})
		if err != nil {
			checks["views"] = CheckError
		} else {
			checks["views"] = CheckOK
		}
	}

	// Nothing is served without the database.
	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case checks["views"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
