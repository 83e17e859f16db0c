package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterLineageMetrics_Idempotent(t *testing.T) {
	RegisterLineageMetrics()
	RegisterLineageMetrics()

	HydrationsTotal.WithLabelValues("hydrate_docs", "ok").Inc()
	if v := testutil.ToFloat64(HydrationsTotal.WithLabelValues("hydrate_docs", "ok")); v < 1 {
		t.Errorf("expected hydrations_total >= 1, got %f", v)
	}

	SearchRows.Observe(3)
	if n := testutil.CollectAndCount(SearchRows); n != 1 {
		t.Errorf("expected 1 search_rows series, got %d", n)
	}
}
