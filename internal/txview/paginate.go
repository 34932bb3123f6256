package txview

import (
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/query"
)

// View is one rendered page of the transaction list.
type View struct {
	Items       []model.Transaction
	TotalCount  int
	TotalPages  int
	CurrentPage int
}

// TotalPages is ceil(total/limit), never less than one.
func TotalPages(total, limit int) int {
	if limit < 1 {
		limit = query.DefaultLimit
	}
	pages := (total + limit - 1) / limit
	return max(1, pages)
}

// Paginate slices rows to [(page-1)*limit, page*limit). A page past the end
// yields no items rather than being clamped.
func Paginate(rows []model.Transaction, page, limit int) View {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = query.DefaultLimit
	}

	total := len(rows)
	view := View{
		Items:       []model.Transaction{},
		TotalCount:  total,
		TotalPages:  TotalPages(total, limit),
		CurrentPage: page,
	}

	start := (page - 1) * limit
	if start >= total {
		return view
	}
	end := min(start+limit, total)
	view.Items = rows[start:end]

	return view
}

// Apply runs the local pipeline: filter, sort, paginate.
func Apply(rows []model.Transaction, state query.State) View {
	filtered := Filter(rows, state)
	sorted := Sort(filtered, state.SortKey, state.SortOrder)
	return Paginate(sorted, state.Page, state.Limit)
}
