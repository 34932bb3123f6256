// Package txview turns a query.State into the rows shown on one page of the
// transaction list. The global list is fetched once per search text and then
// filtered, sorted and paginated locally; the per-school list is fetched from
// the backend on every change.
package txview

import (
	"time"

	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
)

// DefaultFetchCap is the number of rows requested in a single fetch. Rows
// beyond the cap are invisible to local filtering.
const DefaultFetchCap = 1000

// CachedResultSet is the most recent fetch together with the state that
// produced it.
type CachedResultSet struct {
	FetchedAt time.Time
	Params    query.State
	Rows      []model.Transaction
}

// Empty reports whether the cache holds no rows.
func (c CachedResultSet) Empty() bool {
	return len(c.Rows) == 0
}

// NeedsFetch decides whether next can be served from cache. A fetch is
// needed when the cache is empty, when there is no previous state, or when
// the search text changed. Paging, sorting and local filters never refetch.
func NeedsFetch(prev *query.State, next query.State, cache CachedResultSet) bool {
	if cache.Empty() || prev == nil {
		return true
	}
	return next.Search != prev.Search
}

// FetchParams builds the request for a full refresh of the cache: always
// the first page, capped at fetchCap rows, with only sort and search passed
// through.
func FetchParams(state query.State, fetchCap int) gateway.ListParams {
	if fetchCap < 1 {
		fetchCap = DefaultFetchCap
	}
	return gateway.ListParams{
		Page:   1,
		Limit:  fetchCap,
		Sort:   string(state.SortKey),
		Order:  string(state.SortOrder),
		Search: state.Search,
	}
}
