package txview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/query"
)

// Fetcher lists transactions across all schools.
type Fetcher interface {
	ListTransactions(ctx context.Context, params gateway.ListParams) (*gateway.TransactionList, error)
}

// Options configures a Controller.
type Options struct {
	Logger   *slog.Logger
	Now      func() time.Time
	FetchCap int
}

// Controller resolves states against the global transaction list, reusing
// the cached rows whenever the search text has not changed.
type Controller struct {
	fetcher  Fetcher
	logger   *slog.Logger
	now      func() time.Time
	prev     *query.State
	cache    CachedResultSet
	fetchCap int
	mu       sync.Mutex
}

// NewController creates a controller over fetcher.
func NewController(fetcher Fetcher, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FetchCap < 1 {
		opts.FetchCap = DefaultFetchCap
	}
	return &Controller{
		fetcher:  fetcher,
		logger:   opts.Logger,
		now:      opts.Now,
		fetchCap: opts.FetchCap,
	}
}

// Resolve returns the page described by state. When a fetch is needed the
// cache is replaced with the first FetchCap rows for the state's search and
// sort; local filters, sort and pagination are then applied either way.
// A failed fetch empties the cache and returns the error.
func (c *Controller) Resolve(ctx context.Context, state query.State) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.prev
	recorded := state
	c.prev = &recorded

	if NeedsFetch(prev, state, c.cache) {
		params := FetchParams(state, c.fetchCap)
		c.logger.Debug("Fetching transactions",
			"search", params.Search,
			"sort", params.Sort,
			"order", params.Order,
			"limit", params.Limit)

		list, err := c.fetcher.ListTransactions(ctx, params)
		if err != nil {
			c.cache = CachedResultSet{}
			return View{}, fmt.Errorf("failed to fetch transactions: %w", err)
		}

		c.cache = CachedResultSet{
			Params:    state,
			Rows:      list.Data,
			FetchedAt: c.now(),
		}
		c.logger.Debug("Transaction cache refreshed", "rows", len(list.Data), "total", list.Meta.Total)
	}

	return Apply(c.cache.Rows, state), nil
}

// Cache returns the current cached result set.
func (c *Controller) Cache() CachedResultSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache
}

// Invalidate drops the cache so the next Resolve fetches again.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = CachedResultSet{}
	c.prev = nil
}
