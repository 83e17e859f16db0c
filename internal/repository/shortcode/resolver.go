// Package shortcode resolves patient shortcodes to contact ids.
package shortcode

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/lineage/internal/domain"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
)

// querier reads view rows.
type querier interface {
	Query(ctx context.Context, viewName string, p search.Params) ([]search.Row, error)
}

// Resolver looks shortcodes up in the contacts_by_reference view.
type Resolver struct {
	views querier
}

// New creates a shortcode resolver.
func New(views querier) *Resolver {
	return &Resolver{views: views}
}

// Resolve returns the id of the contact registered under code.
// When several contacts share a code the first in view order wins.
func (r *Resolver) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", domain.ErrShortcodeNotFound
	}

	rows, err := r.views.Query(ctx, domview.ContactsByReference, search.Params{
		Key:   []any{"shortcode", code},
		Limit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("resolve shortcode %s: %w", code, err)
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrShortcodeNotFound, code)
	}
	return rows[0].ID, nil
}
