package lineage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/lineage/internal/db"
	dbRedis "github.com/kailas-cloud/lineage/internal/db/redis"
	"github.com/kailas-cloud/lineage/internal/domain"
	dombatch "github.com/kailas-cloud/lineage/internal/domain/batch"
	domdoc "github.com/kailas-cloud/lineage/internal/domain/document"
	"github.com/kailas-cloud/lineage/internal/domain/search"
	"github.com/kailas-cloud/lineage/internal/domain/search/planner"
	domview "github.com/kailas-cloud/lineage/internal/domain/view"
	documentrepo "github.com/kailas-cloud/lineage/internal/repository/document"
	"github.com/kailas-cloud/lineage/internal/repository/shortcode"
	viewrepo "github.com/kailas-cloud/lineage/internal/repository/view"
	batchuc "github.com/kailas-cloud/lineage/internal/usecase/batch"
	documentuc "github.com/kailas-cloud/lineage/internal/usecase/document"
	healthuc "github.com/kailas-cloud/lineage/internal/usecase/health"
	lineageuc "github.com/kailas-cloud/lineage/internal/usecase/lineage"
	searchuc "github.com/kailas-cloud/lineage/internal/usecase/search"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces, swapped for mocks in tests.
type documentUseCase interface {
	Save(ctx context.Context, doc domdoc.Doc) (string, bool, error)
	Get(ctx context.Context, id string) (domdoc.Doc, error)
	Delete(ctx context.Context, id string) error
}

type batchUseCase interface {
	Save(ctx context.Context, docs []domdoc.Doc) []dombatch.Result
	Delete(ctx context.Context, ids []string) []dombatch.Result
}

type lineageUseCase interface {
	FetchChain(ctx context.Context, id string) ([]domdoc.Doc, error)
	FetchHydratedDoc(ctx context.Context, id string) (domdoc.Doc, error)
	HydrateDocs(ctx context.Context, docs []domdoc.Doc) ([]domdoc.Doc, error)
}

type searchUseCase interface {
	Search(
		ctx context.Context, typ string, f search.Filters, opts search.Options, ext search.Extensions,
	) (search.Result, error)
}

// Client is the lineage SDK entry point.
type Client struct {
	store      db.Store
	docSvc     documentUseCase
	batchSvc   batchUseCase
	lineageSvc lineageUseCase
	searchSvc  searchUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New creates a lineage Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:    domain.DefaultKeyPrefix,
		contactTypes: domain.DefaultContactTypes(),
		defaultLimit: search.DefaultLimit,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("lineage: database address required (use WithValkey or WithRedis)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("lineage: database not ready: %w", err)
	}

	return wireClient(store, cfg, obs), nil
}

// createStore connects the rueidis store. Valkey and Redis speak the same
// commands; the driver is validated but both use one implementation.
func createStore(cfg *clientConfig) (*dbRedis.Store, error) {
	switch cfg.driver {
	case "valkey", "redis":
	default:
		return nil, fmt.Errorf("lineage: unknown driver %q", cfg.driver)
	}

	s, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.addrs,
		Username:   cfg.username,
		Password:   cfg.password,
		Standalone: cfg.standalone,
	})
	if err != nil {
		return nil, fmt.Errorf("lineage: create %s store: %w", cfg.driver, err)
	}
	return s, nil
}

func wireClient(store db.Store, cfg *clientConfig, obs *observer) *Client {
	defs := domview.NewDefinitions(cfg.contactTypes)
	docRepo := documentrepo.New(store, documentrepo.WithKeyPrefix(cfg.keyPrefix))
	viewRepo := viewrepo.New(store, docRepo, defs, viewrepo.WithKeyPrefix(cfg.keyPrefix))

	docSvc := documentuc.New(docRepo, viewRepo)

	return &Client{
		store:      store,
		docSvc:     docSvc,
		batchSvc:   batchuc.New(docSvc, docSvc),
		lineageSvc: lineageuc.New(docRepo, viewRepo, shortcode.New(viewRepo)),
		searchSvc:  searchuc.New(planner.New(cfg.contactTypes), viewRepo).WithDefaultLimit(cfg.defaultLimit),
		healthSvc:  healthuc.New(store, viewRepo),
		obs:        obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Documents returns the document storage service.
func (c *Client) Documents() *DocumentService {
	return &DocumentService{svc: c.docSvc, batch: c.batchSvc, obs: c.obs}
}

// Lineage returns the hydration service.
func (c *Client) Lineage() *LineageService {
	return &LineageService{svc: c.lineageSvc, obs: c.obs}
}

// Search returns the search service.
func (c *Client) Search() *SearchService {
	return &SearchService{svc: c.searchSvc, obs: c.obs}
}
